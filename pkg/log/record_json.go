package log

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/valyala/fastjson"
)

// ErrInvalidRecord is returned when a JSON object cannot be read as a Record.
var ErrInvalidRecord = errors.New("log: invalid record")

// AppendJSON appends the record as a single-line JSON object to dst.
// Kind and Level are written by name so the output survives enum reordering.
func (r Record) AppendJSON(dst []byte) []byte {
	a := jsonArenas.Get()
	defer jsonArenas.Put(a)

	o := a.NewObject()
	o.Set("time", a.NewString(r.Time.Format(time.RFC3339Nano)))
	o.Set("kind", a.NewString(r.Kind.String()))
	o.Set("level", a.NewString(r.Level.String()))
	setString(a, o, "key", r.Key)
	setString(a, o, "category", r.Category)
	setString(a, o, "source", r.Source)
	setString(a, o, "scope_id", r.ScopeID)
	setString(a, o, "parent_id", r.ParentID)
	setString(a, o, "name", r.Name)
	setString(a, o, "member", r.Member)
	setString(a, o, "file", r.File)
	if r.Line != 0 {
		o.Set("line", a.NewNumberInt(r.Line))
	}
	if r.Depth != 0 {
		o.Set("depth", a.NewNumberInt(r.Depth))
	}
	if r.GoroutineID != 0 {
		o.Set("goroutine_id", a.NewNumberString(strconv.FormatInt(r.GoroutineID, 10)))
	}
	o.Set("elapsed_ms", a.NewNumberString(strconv.FormatInt(r.ElapsedMilliseconds, 10)))
	if r.StartTicks != 0 {
		o.Set("start_ticks", a.NewNumberString(strconv.FormatInt(r.StartTicks, 10)))
	}
	if r.Duration != 0 {
		o.Set("duration_ns", a.NewNumberString(strconv.FormatInt(int64(r.Duration), 10)))
	}
	o.Set("message", a.NewString(r.Message))
	setString(a, o, "error", r.Error)
	if len(r.Properties) > 0 {
		props := a.NewObject()
		for k, v := range r.Properties {
			props.Set(k, jsonValue(a, v))
		}
		o.Set("properties", props)
	}
	setString(a, o, "process", r.Process)
	if r.PID != 0 {
		o.Set("pid", a.NewNumberInt(r.PID))
	}
	return o.MarshalTo(dst)
}

func setString(a *fastjson.Arena, o *fastjson.Value, key, s string) {
	if s != "" {
		o.Set(key, a.NewString(s))
	}
}

// RecordFromJSON reads a record from an object written by AppendJSON.
// Missing fields keep their zero value; kind defaults to message.
func RecordFromJSON(v *fastjson.Value) (Record, error) {
	if v == nil || v.Type() != fastjson.TypeObject {
		return Record{}, fmt.Errorf("%w: expected object", ErrInvalidRecord)
	}

	var r Record
	if ts := v.GetStringBytes("time"); len(ts) > 0 {
		t, err := time.Parse(time.RFC3339Nano, string(ts))
		if err != nil {
			return Record{}, fmt.Errorf("%w: time: %v", ErrInvalidRecord, err)
		}
		r.Time = t
	}
	if k := v.GetStringBytes("kind"); len(k) > 0 {
		kind, err := ParseKind(string(k))
		if err != nil {
			return Record{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
		}
		r.Kind = kind
	}
	r.Level = LevelInformation
	if l := v.GetStringBytes("level"); len(l) > 0 {
		lvl, err := ParseLevel(string(l))
		if err != nil {
			return Record{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
		}
		r.Level = lvl
	}

	r.Key = string(v.GetStringBytes("key"))
	r.Category = string(v.GetStringBytes("category"))
	r.Source = string(v.GetStringBytes("source"))
	r.ScopeID = string(v.GetStringBytes("scope_id"))
	r.ParentID = string(v.GetStringBytes("parent_id"))
	r.Name = string(v.GetStringBytes("name"))
	r.Member = string(v.GetStringBytes("member"))
	r.File = string(v.GetStringBytes("file"))
	r.Line = v.GetInt("line")
	r.Depth = v.GetInt("depth")
	r.GoroutineID = v.GetInt64("goroutine_id")
	r.ElapsedMilliseconds = v.GetInt64("elapsed_ms")
	r.StartTicks = v.GetInt64("start_ticks")
	r.Duration = time.Duration(v.GetInt64("duration_ns"))
	r.Message = string(v.GetStringBytes("message"))
	r.Error = string(v.GetStringBytes("error"))
	r.Process = string(v.GetStringBytes("process"))
	r.PID = v.GetInt("pid")

	if props := v.GetObject("properties"); props != nil && props.Len() > 0 {
		r.Properties = make(map[string]any, props.Len())
		props.Visit(func(k []byte, pv *fastjson.Value) {
			r.Properties[string(k)] = fromJSONValue(pv)
		})
	}
	return r, nil
}

func fromJSONValue(v *fastjson.Value) any {
	switch v.Type() {
	case fastjson.TypeString:
		return string(v.GetStringBytes())
	case fastjson.TypeNumber:
		f := v.GetFloat64()
		if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return int64(f)
		}
		return f
	case fastjson.TypeTrue:
		return true
	case fastjson.TypeFalse:
		return false
	case fastjson.TypeNull:
		return nil
	default:
		return v.String()
	}
}
