package core

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 每个 sink 的写入/失败/丢弃计数
// 丢弃仅发生在进程退出时队列未排空的场景（有界阻塞队列不静默丢日志）。
var (
	recordsWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gridlog",
		Name:      "records_written_total",
		Help:      "Records successfully written, per sink.",
	}, []string{"sink"})

	writeFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gridlog",
		Name:      "sink_write_failures_total",
		Help:      "Write failures isolated from the caller, per sink.",
	}, []string{"sink"})

	recordsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gridlog",
		Name:      "records_dropped_total",
		Help:      "Records dropped at shutdown with a non-empty queue, per sink.",
	}, []string{"sink"})
)

func ObserveWritten(sink string)      { recordsWritten.WithLabelValues(sink).Inc() }
func ObserveWriteFailure(sink string) { writeFailures.WithLabelValues(sink).Inc() }
func ObserveDropped(sink string)      { recordsDropped.WithLabelValues(sink).Inc() }
