package schema

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/beevik/etree"
)

// Mode selects how an entity's element fields are matched against the child
// elements of its XML node.
type Mode int

const (
	// Unordered lets fields match children in any order.
	Unordered Mode = iota
	// Ordered matches element fields against children by document position:
	// each field claims the first matching child at or after the previously
	// claimed one, so two same-tagged siblings bind to fields positionally.
	Ordered
)

// DecodeError reports a document that does not match the expected entity
// shape: a missing required location, an unconvertible scalar, or a root
// element with the wrong tag.
type DecodeError struct {
	Entity string // entity type being decoded
	Field  string // struct field, empty for entity-level failures
	Loc    string // XML location from the field tag
	Reason string
}

func (e *DecodeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("decoding %s: %s", e.Entity, e.Reason)
	}
	return fmt.Sprintf("decoding %s.%s (%s): %s", e.Entity, e.Field, e.Loc, e.Reason)
}

// elementDecoder lets an entity type take over decoding of its own element.
type elementDecoder interface {
	decodeElement(el *etree.Element) error
}

// absentFiller is implemented by entity types that substitute a fallback
// value when their element is missing, instead of failing the decode.
type absentFiller interface {
	fillAbsent()
}

// Decode parses one XML document and decodes its root element into dst,
// a pointer to an entity struct. The document is parsed into a tree exactly
// once; nested entities are decoded by walking that tree. When the entity
// declares a root tag, the document's root must carry it.
func Decode(data []byte, dst any) error {
	v, spec, err := entityValue(dst)
	if err != nil {
		return err
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return &DecodeError{Entity: v.Type().Name(), Reason: fmt.Sprintf("parsing XML: %v", err)}
	}
	root := doc.Root()
	if root == nil {
		return &DecodeError{Entity: v.Type().Name(), Reason: "document has no root element"}
	}
	if spec.tag != "" && root.Tag != spec.tag {
		return &DecodeError{
			Entity: v.Type().Name(),
			Reason: fmt.Sprintf("unexpected root element <%s>, want <%s>", root.Tag, spec.tag),
		}
	}
	return decodeInto(root, v, dst)
}

// DecodeElement decodes an already-parsed element into dst. It is the entry
// point for nested decodes and never re-parses the document.
func DecodeElement(el *etree.Element, dst any) error {
	v, _, err := entityValue(dst)
	if err != nil {
		return err
	}
	return decodeInto(el, v, dst)
}

func decodeInto(el *etree.Element, v reflect.Value, dst any) error {
	if ed, ok := dst.(elementDecoder); ok {
		return ed.decodeElement(el)
	}
	return decodeStruct(el, v)
}

// entityValue validates dst and returns the addressable struct value behind it.
func entityValue(dst any) (reflect.Value, *typeSpec, error) {
	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return reflect.Value{}, nil, fmt.Errorf("schema: decode target must be a non-nil pointer, got %T", dst)
	}
	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return reflect.Value{}, nil, fmt.Errorf("schema: decode target must point to a struct, got %T", dst)
	}
	return v, specFor(v.Type()), nil
}

// typeSpec is the decoded form of an entity's struct tags: its optional root
// tag, its matching mode and one entry per mapped field.
type typeSpec struct {
	tag    string
	mode   Mode
	fields []fieldSpec
}

// fieldSpec describes where one field's value lives relative to the entity's
// element. Locations follow the `exml` tag grammar:
//
//	Elem                   direct child element (claims a sibling)
//	A/B/C                  wrapped path, resolved without claiming siblings
//	@attr                  attribute on the entity's element
//	A/B@attr               attribute at the end of a wrapped path
//	,chardata              the element's own text content
//
// Pointer and slice fields are optional; value fields are required and fail
// the decode when their location is absent.
type fieldSpec struct {
	index    int
	name     string
	loc      string
	segs     []string
	attr     string
	chardata bool
}

var specCache sync.Map // reflect.Type -> *typeSpec

func specFor(t reflect.Type) *typeSpec {
	if cached, ok := specCache.Load(t); ok {
		return cached.(*typeSpec)
	}

	spec := &typeSpec{}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag, ok := sf.Tag.Lookup("exml")
		if sf.Name == "XMLName" {
			name, opts, _ := strings.Cut(tag, ",")
			spec.tag = name
			if opts == "ordered" {
				spec.mode = Ordered
			}
			continue
		}
		if !ok || tag == "-" || !sf.IsExported() {
			continue
		}

		f := fieldSpec{index: i, name: sf.Name, loc: tag}
		loc, opts, _ := strings.Cut(tag, ",")
		if opts == "chardata" {
			f.chardata = true
		} else {
			base, attr, hasAttr := strings.Cut(loc, "@")
			if hasAttr {
				f.attr = attr
			}
			if base != "" {
				f.segs = strings.Split(base, "/")
			}
		}
		if !f.chardata && f.attr == "" && len(f.segs) == 0 {
			continue
		}
		spec.fields = append(spec.fields, f)
	}

	specCache.Store(t, spec)
	return spec
}

func decodeStruct(el *etree.Element, v reflect.Value) error {
	t := v.Type()
	spec := specFor(t)
	m := newMatcher(el, spec.mode)
	for i := range spec.fields {
		if err := decodeField(el, m, &spec.fields[i], v.Field(spec.fields[i].index), t.Name()); err != nil {
			return err
		}
	}
	return nil
}

func decodeField(el *etree.Element, m *matcher, f *fieldSpec, fv reflect.Value, entity string) error {
	fail := func(reason string) error {
		return &DecodeError{Entity: entity, Field: f.name, Loc: f.loc, Reason: reason}
	}

	if f.chardata {
		if err := setScalar(fv, el.Text()); err != nil {
			return fail(err.Error())
		}
		return nil
	}

	if f.attr != "" {
		target := el
		if len(f.segs) > 0 {
			target = descend(el, f.segs)
		}
		var attr *etree.Attr
		if target != nil {
			attr = target.SelectAttr(f.attr)
		}
		if attr == nil {
			if optional(fv) {
				return nil
			}
			return fail("required attribute is missing")
		}
		if err := setOptScalar(fv, attr.Value); err != nil {
			return fail(err.Error())
		}
		return nil
	}

	if fv.Kind() == reflect.Slice {
		return decodeList(el, m, f, fv, fail)
	}

	child := locate(el, m, f.segs)
	if child == nil {
		switch {
		case fv.Kind() == reflect.Pointer:
			return nil
		case fv.Kind() == reflect.Struct:
			if af, ok := fv.Addr().Interface().(absentFiller); ok {
				af.fillAbsent()
				return nil
			}
			return fail("required element is missing")
		default:
			return fail("required element is missing")
		}
	}
	return decodeSingle(child, fv, fail)
}

// locate finds the element for a non-repeated field. Single-segment
// locations claim a sibling through the matcher; wrapped paths resolve
// against the whole element so several fields may address one wrapper.
func locate(el *etree.Element, m *matcher, segs []string) *etree.Element {
	if len(segs) == 1 {
		return m.take(segs[0])
	}
	return descend(el, segs)
}

// decodeSingle fills one located element into a scalar, entity or pointer field.
func decodeSingle(child *etree.Element, fv reflect.Value, fail func(string) error) error {
	ft := fv.Type()
	switch {
	case ft.Kind() == reflect.Pointer && ft.Elem().Kind() == reflect.Struct:
		nv := reflect.New(ft.Elem())
		if err := decodeInto(child, nv.Elem(), nv.Interface()); err != nil {
			return err
		}
		fv.Set(nv)
	case ft.Kind() == reflect.Pointer:
		nv := reflect.New(ft.Elem())
		if err := setScalar(nv.Elem(), child.Text()); err != nil {
			return fail(err.Error())
		}
		fv.Set(nv)
	case ft.Kind() == reflect.Struct:
		return decodeInto(child, fv, fv.Addr().Interface())
	default:
		if err := setScalar(fv, child.Text()); err != nil {
			return fail(err.Error())
		}
	}
	return nil
}

// decodeList collects every matching child, preserving document order.
// Zero matches decode to an empty sequence, never an error.
func decodeList(el *etree.Element, m *matcher, f *fieldSpec, fv reflect.Value, fail func(string) error) error {
	var els []*etree.Element
	if len(f.segs) == 1 {
		els = m.takeAll(f.segs[0])
	} else if wrapper := descend(el, f.segs[:len(f.segs)-1]); wrapper != nil {
		els = wrapper.SelectElements(f.segs[len(f.segs)-1])
	}
	if len(els) == 0 {
		return nil
	}

	out := reflect.MakeSlice(fv.Type(), 0, len(els))
	for _, child := range els {
		item := reflect.New(fv.Type().Elem()).Elem()
		if err := decodeSingle(child, item, fail); err != nil {
			return err
		}
		out = reflect.Append(out, item)
	}
	fv.Set(out)
	return nil
}

// descend resolves a wrapped path, taking the first child matching each
// segment. Returns nil as soon as a segment has no match.
func descend(el *etree.Element, segs []string) *etree.Element {
	cur := el
	for _, seg := range segs {
		cur = cur.SelectElement(seg)
		if cur == nil {
			return nil
		}
	}
	return cur
}

func optional(fv reflect.Value) bool {
	k := fv.Kind()
	return k == reflect.Pointer || k == reflect.Slice
}

func setOptScalar(fv reflect.Value, raw string) error {
	if fv.Kind() == reflect.Pointer {
		nv := reflect.New(fv.Type().Elem())
		if err := setScalar(nv.Elem(), raw); err != nil {
			return err
		}
		fv.Set(nv)
		return nil
	}
	return setScalar(fv, raw)
}

// setScalar converts element text or an attribute value into the field's
// scalar type. Named integer types (Classification) convert by ordinal.
func setScalar(fv reflect.Value, raw string) error {
	raw = strings.TrimSpace(raw)
	switch fv.Kind() {
	case reflect.String:
		fv.SetString(raw)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("cannot parse %q as integer", raw)
		}
		fv.SetInt(n)
	case reflect.Float32, reflect.Float64:
		x, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("cannot parse %q as number", raw)
		}
		fv.SetFloat(x)
	default:
		return fmt.Errorf("unsupported field type %s", fv.Type())
	}
	return nil
}

// matcher tracks which children of an element have been claimed by fields,
// so repeated tags bind correctly in both matching modes.
type matcher struct {
	children []*etree.Element
	used     []bool
	cursor   int
	ordered  bool
}

func newMatcher(el *etree.Element, mode Mode) *matcher {
	kids := el.ChildElements()
	return &matcher{
		children: kids,
		used:     make([]bool, len(kids)),
		ordered:  mode == Ordered,
	}
}

// take claims the next unclaimed child with the given tag. In ordered mode
// the scan starts at the cursor and advances past the claimed child, so a
// later field can never bind an earlier sibling.
func (m *matcher) take(tag string) *etree.Element {
	start := 0
	if m.ordered {
		start = m.cursor
	}
	for i := start; i < len(m.children); i++ {
		if m.used[i] || m.children[i].Tag != tag {
			continue
		}
		m.used[i] = true
		if m.ordered {
			m.cursor = i + 1
		}
		return m.children[i]
	}
	return nil
}

// takeAll claims every unclaimed child with the given tag in document order.
func (m *matcher) takeAll(tag string) []*etree.Element {
	var out []*etree.Element
	start := 0
	if m.ordered {
		start = m.cursor
	}
	for i := start; i < len(m.children); i++ {
		if m.used[i] || m.children[i].Tag != tag {
			continue
		}
		m.used[i] = true
		if m.ordered {
			m.cursor = i + 1
		}
		out = append(out, m.children[i])
	}
	return out
}
