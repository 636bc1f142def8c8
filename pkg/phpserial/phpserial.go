// Copyright (c) 2025, anteo and the okinod contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package phpserial implements the subset of the PHP serialization format
// needed to talk to catalog endpoints that expect serialized state blobs:
// scalars, arrays and objects with property name mangling.
package phpserial

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Object is a PHP object with a class name and its properties.
// Private properties use the "\x00ClassName\x00name" mangling on the wire;
// Marshal applies it for keys listed in Private.
type Object struct {
	Name    string
	Props   map[string]any
	Private bool
}

// Marshal serializes v into the PHP serialization format. Supported types:
// nil, bool, int variants, float64, string, []any, map[string]any and Object.
// Map keys are emitted in sorted order so output is deterministic.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := encode(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encode(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("N;")
	case bool:
		if val {
			buf.WriteString("b:1;")
		} else {
			buf.WriteString("b:0;")
		}
	case int:
		fmt.Fprintf(buf, "i:%d;", val)
	case int64:
		fmt.Fprintf(buf, "i:%d;", val)
	case float64:
		fmt.Fprintf(buf, "d:%s;", strconv.FormatFloat(val, 'f', -1, 64))
	case string:
		fmt.Fprintf(buf, "s:%d:\"%s\";", len(val), val)
	case []any:
		fmt.Fprintf(buf, "a:%d:{", len(val))
		for i, item := range val {
			if err := encode(buf, i); err != nil {
				return err
			}
			if err := encode(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintf(buf, "a:%d:{", len(val))
		for _, k := range keys {
			if err := encode(buf, k); err != nil {
				return err
			}
			if err := encode(buf, val[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case Object:
		keys := make([]string, 0, len(val.Props))
		for k := range val.Props {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintf(buf, "O:%d:\"%s\":%d:{", len(val.Name), val.Name, len(val.Props))
		for _, k := range keys {
			name := k
			if val.Private {
				name = "\x00" + val.Name + "\x00" + k
			}
			if err := encode(buf, name); err != nil {
				return err
			}
			if err := encode(buf, val.Props[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return errors.Errorf("phpserial: unsupported type %T", v)
	}
	return nil
}

// Unmarshal parses PHP-serialized data. Arrays decode to map[string]any
// (integer keys converted to decimal strings), objects to Object with the
// property name mangling stripped.
func Unmarshal(data []byte) (any, error) {
	d := &decoder{data: data}
	v, err := d.decode()
	if err != nil {
		return nil, err
	}
	return v, nil
}

type decoder struct {
	data []byte
	pos  int
}

func (d *decoder) decode() (any, error) {
	if d.pos >= len(d.data) {
		return nil, errors.New("phpserial: unexpected end of data")
	}
	switch d.data[d.pos] {
	case 'N':
		if err := d.expect("N;"); err != nil {
			return nil, err
		}
		return nil, nil
	case 'b':
		raw, err := d.scalar('b')
		if err != nil {
			return nil, err
		}
		return raw == "1", nil
	case 'i':
		raw, err := d.scalar('i')
		if err != nil {
			return nil, err
		}
		return strconv.Atoi(raw)
	case 'd':
		raw, err := d.scalar('d')
		if err != nil {
			return nil, err
		}
		return strconv.ParseFloat(raw, 64)
	case 's':
		return d.str()
	case 'a':
		return d.array()
	case 'O':
		return d.object()
	}
	return nil, errors.Errorf("phpserial: unexpected token %q at %d", d.data[d.pos], d.pos)
}

func (d *decoder) expect(s string) error {
	if !bytes.HasPrefix(d.data[d.pos:], []byte(s)) {
		return errors.Errorf("phpserial: expected %q at %d", s, d.pos)
	}
	d.pos += len(s)
	return nil
}

// scalar reads "<tag>:<raw>;" and returns raw.
func (d *decoder) scalar(tag byte) (string, error) {
	if err := d.expect(string(tag) + ":"); err != nil {
		return "", err
	}
	end := bytes.IndexByte(d.data[d.pos:], ';')
	if end < 0 {
		return "", errors.New("phpserial: unterminated scalar")
	}
	raw := string(d.data[d.pos : d.pos+end])
	d.pos += end + 1
	return raw, nil
}

func (d *decoder) length(tag string) (int, error) {
	if err := d.expect(tag + ":"); err != nil {
		return 0, err
	}
	end := bytes.IndexByte(d.data[d.pos:], ':')
	if end < 0 {
		return 0, errors.New("phpserial: missing length")
	}
	n, err := strconv.Atoi(string(d.data[d.pos : d.pos+end]))
	if err != nil {
		return 0, errors.Wrap(err, "phpserial: bad length")
	}
	d.pos += end + 1
	return n, nil
}

func (d *decoder) str() (string, error) {
	n, err := d.length("s")
	if err != nil {
		return "", err
	}
	if d.pos+n+3 > len(d.data) {
		return "", errors.New("phpserial: string overruns data")
	}
	if d.data[d.pos] != '"' {
		return "", errors.Errorf("phpserial: expected string quote at %d", d.pos)
	}
	s := string(d.data[d.pos+1 : d.pos+1+n])
	d.pos += n + 2
	if err := d.expect(";"); err != nil {
		return "", err
	}
	return s, nil
}

func (d *decoder) array() (map[string]any, error) {
	n, err := d.length("a")
	if err != nil {
		return nil, err
	}
	if err := d.expect("{"); err != nil {
		return nil, err
	}
	res, err := d.entries(n)
	if err != nil {
		return nil, err
	}
	if err := d.expect("}"); err != nil {
		return nil, err
	}
	return res, nil
}

func (d *decoder) object() (Object, error) {
	nameLen, err := d.length("O")
	if err != nil {
		return Object{}, err
	}
	if d.pos+nameLen+2 > len(d.data) {
		return Object{}, errors.New("phpserial: object name overruns data")
	}
	name := string(d.data[d.pos+1 : d.pos+1+nameLen])
	d.pos += nameLen + 2
	if err := d.expect(":"); err != nil {
		return Object{}, err
	}
	end := bytes.IndexByte(d.data[d.pos:], ':')
	if end < 0 {
		return Object{}, errors.New("phpserial: missing object size")
	}
	n, err := strconv.Atoi(string(d.data[d.pos : d.pos+end]))
	if err != nil {
		return Object{}, errors.Wrap(err, "phpserial: bad object size")
	}
	d.pos += end + 1
	if err := d.expect("{"); err != nil {
		return Object{}, err
	}
	props, err := d.entries(n)
	if err != nil {
		return Object{}, err
	}
	if err := d.expect("}"); err != nil {
		return Object{}, err
	}
	obj := Object{Name: name, Props: make(map[string]any, len(props))}
	for k, v := range props {
		if strings.HasPrefix(k, "\x00") {
			obj.Private = true
			if idx := strings.LastIndexByte(k, 0); idx >= 0 {
				k = k[idx+1:]
			}
		}
		obj.Props[k] = v
	}
	return obj, nil
}

func (d *decoder) entries(n int) (map[string]any, error) {
	res := make(map[string]any, n)
	for i := 0; i < n; i++ {
		key, err := d.decode()
		if err != nil {
			return nil, err
		}
		val, err := d.decode()
		if err != nil {
			return nil, err
		}
		switch k := key.(type) {
		case string:
			res[k] = val
		case int:
			res[strconv.Itoa(k)] = val
		default:
			return nil, errors.Errorf("phpserial: unsupported key type %T", key)
		}
	}
	return res, nil
}
