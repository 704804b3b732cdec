package core

import (
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap/zapcore"
)

// 顶层保留键：不进入通用字段映射，提升为记录槽位
const (
	messageFieldKey     = "message"
	correlationFieldKey = "correlation_id"
	spanFieldKey        = "span"
)

// fieldVisitor 将 zap 字段展开为 JSON 兼容的扁平映射
// 名为 message 的字符串字段被提取为记录的 message，
// correlation_id / span 提升为上下文槽位。
// 未知/复杂类型退化为调试字符串，绝不失败。
type fieldVisitor struct {
	fields        map[string]any
	message       string
	correlationID string
	span          string
	ns            string
}

func newFieldVisitor() *fieldVisitor {
	return &fieldVisitor{fields: make(map[string]any)}
}

// visit 依次应用所有字段并返回访问器自身
func (v *fieldVisitor) visit(fields []zapcore.Field) *fieldVisitor {
	for i := range fields {
		fields[i].AddTo(v)
	}
	return v
}

func (v *fieldVisitor) key(k string) string {
	if v.ns == "" {
		return k
	}
	return v.ns + "." + k
}

func (v *fieldVisitor) put(k string, val any) {
	v.fields[v.key(k)] = val
}

// reserved 处理顶层保留键，命中时返回 true
func (v *fieldVisitor) reserved(k, val string) bool {
	if v.ns != "" {
		return false
	}
	switch k {
	case messageFieldKey:
		v.message = val
	case correlationFieldKey:
		v.correlationID = val
	case spanFieldKey:
		v.span = val
	default:
		return false
	}
	return true
}

// --- zapcore.ObjectEncoder ---

func (v *fieldVisitor) AddString(k, val string) {
	if v.reserved(k, val) {
		return
	}
	v.put(k, val)
}

func (v *fieldVisitor) AddBool(k string, val bool)       { v.put(k, val) }
func (v *fieldVisitor) AddInt(k string, val int)         { v.put(k, int64(val)) }
func (v *fieldVisitor) AddInt64(k string, val int64)     { v.put(k, val) }
func (v *fieldVisitor) AddInt32(k string, val int32)     { v.put(k, int64(val)) }
func (v *fieldVisitor) AddInt16(k string, val int16)     { v.put(k, int64(val)) }
func (v *fieldVisitor) AddInt8(k string, val int8)       { v.put(k, int64(val)) }
func (v *fieldVisitor) AddUint(k string, val uint)       { v.put(k, uint64(val)) }
func (v *fieldVisitor) AddUint64(k string, val uint64)   { v.put(k, val) }
func (v *fieldVisitor) AddUint32(k string, val uint32)   { v.put(k, uint64(val)) }
func (v *fieldVisitor) AddUint16(k string, val uint16)   { v.put(k, uint64(val)) }
func (v *fieldVisitor) AddUint8(k string, val uint8)     { v.put(k, uint64(val)) }
func (v *fieldVisitor) AddUintptr(k string, val uintptr) { v.put(k, uint64(val)) }
func (v *fieldVisitor) AddFloat64(k string, val float64) { v.put(k, val) }
func (v *fieldVisitor) AddFloat32(k string, val float32) { v.put(k, float64(val)) }

func (v *fieldVisitor) AddByteString(k string, val []byte) {
	if v.reserved(k, string(val)) {
		return
	}
	v.put(k, string(val))
}

func (v *fieldVisitor) AddBinary(k string, val []byte) { v.put(k, val) }

// 时长统一为毫秒浮点数，与 duration_ms 字段口径一致
func (v *fieldVisitor) AddDuration(k string, val time.Duration) {
	v.put(k, float64(val)/float64(time.Millisecond))
}

func (v *fieldVisitor) AddTime(k string, val time.Time) {
	v.put(k, val.UTC().Format(time.RFC3339Nano))
}

// 复数没有 JSON 表示，退化为调试字符串
func (v *fieldVisitor) AddComplex128(k string, val complex128) { v.put(k, fmt.Sprintf("%v", val)) }
func (v *fieldVisitor) AddComplex64(k string, val complex64)   { v.put(k, fmt.Sprintf("%v", val)) }

func (v *fieldVisitor) AddReflected(k string, val interface{}) error {
	if val == nil {
		v.put(k, nil)
		return nil
	}
	if _, err := json.Marshal(val); err != nil {
		// 不可序列化的值不让整条记录失败
		v.put(k, fmt.Sprintf("%+v", val))
		return nil
	}
	v.put(k, val)
	return nil
}

func (v *fieldVisitor) AddObject(k string, marshaler zapcore.ObjectMarshaler) error {
	sub := newFieldVisitor()
	if err := marshaler.MarshalLogObject(sub); err != nil {
		v.put(k, fmt.Sprintf("%+v", marshaler))
		return nil
	}
	v.put(k, sub.fields)
	return nil
}

func (v *fieldVisitor) AddArray(k string, marshaler zapcore.ArrayMarshaler) error {
	arr := &arrayVisitor{}
	if err := marshaler.MarshalLogArray(arr); err != nil {
		v.put(k, fmt.Sprintf("%+v", marshaler))
		return nil
	}
	v.put(k, arr.elems)
	return nil
}

func (v *fieldVisitor) OpenNamespace(k string) {
	v.ns = v.key(k)
}

// arrayVisitor 收集数组元素
type arrayVisitor struct{ elems []any }

func (a *arrayVisitor) append(val any) { a.elems = append(a.elems, val) }

func (a *arrayVisitor) AppendArray(marshaler zapcore.ArrayMarshaler) error {
	sub := &arrayVisitor{}
	if err := marshaler.MarshalLogArray(sub); err != nil {
		return err
	}
	a.append(sub.elems)
	return nil
}

func (a *arrayVisitor) AppendObject(marshaler zapcore.ObjectMarshaler) error {
	sub := newFieldVisitor()
	if err := marshaler.MarshalLogObject(sub); err != nil {
		return err
	}
	a.append(sub.fields)
	return nil
}

func (a *arrayVisitor) AppendReflected(val interface{}) error {
	a.append(val)
	return nil
}

func (a *arrayVisitor) AppendBool(v bool)             { a.append(v) }
func (a *arrayVisitor) AppendByteString(v []byte)     { a.append(string(v)) }
func (a *arrayVisitor) AppendComplex128(v complex128) { a.append(fmt.Sprintf("%v", v)) }
func (a *arrayVisitor) AppendComplex64(v complex64)   { a.append(fmt.Sprintf("%v", v)) }
func (a *arrayVisitor) AppendDuration(v time.Duration) {
	a.append(float64(v) / float64(time.Millisecond))
}
func (a *arrayVisitor) AppendFloat64(v float64) { a.append(v) }
func (a *arrayVisitor) AppendFloat32(v float32) { a.append(float64(v)) }
func (a *arrayVisitor) AppendInt(v int)         { a.append(int64(v)) }
func (a *arrayVisitor) AppendInt64(v int64)     { a.append(v) }
func (a *arrayVisitor) AppendInt32(v int32)     { a.append(int64(v)) }
func (a *arrayVisitor) AppendInt16(v int16)     { a.append(int64(v)) }
func (a *arrayVisitor) AppendInt8(v int8)       { a.append(int64(v)) }
func (a *arrayVisitor) AppendString(v string)   { a.append(v) }
func (a *arrayVisitor) AppendTime(v time.Time)  { a.append(v.UTC().Format(time.RFC3339Nano)) }
func (a *arrayVisitor) AppendUint(v uint)       { a.append(uint64(v)) }
func (a *arrayVisitor) AppendUint64(v uint64)   { a.append(v) }
func (a *arrayVisitor) AppendUint32(v uint32)   { a.append(uint64(v)) }
func (a *arrayVisitor) AppendUint16(v uint16)   { a.append(uint64(v)) }
func (a *arrayVisitor) AppendUint8(v uint8)     { a.append(uint64(v)) }
func (a *arrayVisitor) AppendUintptr(v uintptr) { a.append(uint64(v)) }
