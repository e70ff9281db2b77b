package me1

import (
	"github.com/pkg/errors"

	"masseffect-save-edit/memory"
	"masseffect-save-edit/ue"
)

// noneName is the sentinel resolved name that terminates a property list.
const noneName = "None"

// maxDepth bounds property-list nesting so corrupt input reports
// ErrDepthExceeded instead of exhausting the stack.
const maxDepth = 1000

type Kind uint8

const (
	KindNone Kind = iota
	KindArray
	KindBool
	KindByte
	KindFloat
	KindInt
	KindName
	KindObject
	KindStr
	KindStringRef
	KindStruct
)

var kindNames = map[Kind]string{
	KindNone:      "None",
	KindArray:     "Array",
	KindBool:      "Bool",
	KindByte:      "Byte",
	KindFloat:     "Float",
	KindInt:       "Int",
	KindName:      "Name",
	KindObject:    "Object",
	KindStr:       "Str",
	KindStringRef: "StringRef",
	KindStruct:    "Struct",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Property is one decoded node of a property list. NameID and TypeID index
// the owning record's name table; Size is the payload length as declared in
// the source file and is replayed on encode, not recomputed, unless the
// value is edited through a setter. The pad spans are uninterpreted bytes
// interleaved with the scalars on the wire.
type Property struct {
	Kind   Kind
	NameID uint32
	Pad1   memory.Span // 4 bytes
	TypeID uint32
	Pad2   memory.Span // 4 bytes
	Size   uint32
	Pad3   memory.Span // 4 bytes
	Value  interface{}
}

// NameValue is the payload of a name-typed node: a second name-table
// reference. Byte-typed nodes whose declared size is not 1 decode into this
// shape too, which is what makes their encode replay the name branch.
type NameValue struct {
	NameID uint32
	Pad    memory.Span // 4 bytes
}

// StructValue is the payload of a struct-typed node. Payload is one of
// ue.LinearColor, ue.Vector, ue.Rotator or []Property, chosen by resolving
// StructNameID.
type StructValue struct {
	StructNameID uint32
	Pad          memory.Span // 4 bytes
	Payload      interface{}
}

type ArrayKind uint8

const (
	ArrayKindProperties ArrayKind = iota
	ArrayKindInt
	ArrayKindObject
	ArrayKindVector
	ArrayKindString
)

// ArrayValue is the payload of an array-typed node. Items holds int32,
// ue.Vector, string or []Property values according to Kind.
type ArrayValue struct {
	Kind  ArrayKind
	Items []interface{}
}

// arrayElementKinds fixes the element kind of known array properties. The
// wire format does not tag array elements, so this knowledge is hardcoded
// per property name; anything not listed decodes as a nested property list
// per element. Supporting a new array property means adding it here.
var arrayElementKinds = map[string]ArrayKind{
	"m_PrereqTalentIDArray":   ArrayKindInt,
	"m_PrereqTalentRankArray": ArrayKindInt,
	"m_aItem":                 ArrayKindObject,
	"m_aXMod":                 ArrayKindObject,
	"m_aEquipped":             ArrayKindObject,
	"m_QuickSlotArray":        ArrayKindObject,
	"m_savedBuybackItems":     ArrayKindObject,
	"m_vPosition":             ArrayKindVector,
	"m_DependentPackages":     ArrayKindString,
}

// structNames with a fixed-layout payload; every other struct name is a
// nested property list.
const (
	structLinearColor = "LinearColor"
	structVector      = "Vector"
	structRotator     = "Rotator"
)

func readProperties(c *memory.Cursor, names NameTable, depth int) ([]Property, error) {
	if depth > maxDepth {
		return nil, errors.Wrapf(ErrDepthExceeded, "more than %d nested property lists", maxDepth)
	}

	var result []Property
	for {
		property, err := readProperty(c, names, depth)
		if err != nil {
			return nil, err
		}
		result = append(result, property)
		if property.Kind == KindNone {
			return result, nil
		}
	}
}

func readProperty(c *memory.Cursor, names NameTable, depth int) (Property, error) {
	nameID, err := memory.ReadInt[uint32](c)
	if err != nil {
		return Property{}, errors.Wrap(err, "property name id")
	}
	pad1, err := memory.ReadSpan(c, 4)
	if err != nil {
		return Property{}, err
	}

	name, err := names.Resolve(nameID)
	if err != nil {
		return Property{}, err
	}
	if name == noneName {
		return Property{Kind: KindNone, NameID: nameID, Pad1: pad1}, nil
	}

	property := Property{NameID: nameID, Pad1: pad1}
	if property.TypeID, err = memory.ReadInt[uint32](c); err != nil {
		return Property{}, errors.Wrapf(err, "property %s type id", name)
	}
	if property.Pad2, err = memory.ReadSpan(c, 4); err != nil {
		return Property{}, err
	}
	if property.Size, err = memory.ReadInt[uint32](c); err != nil {
		return Property{}, errors.Wrapf(err, "property %s size", name)
	}
	if property.Pad3, err = memory.ReadSpan(c, 4); err != nil {
		return Property{}, err
	}

	typeName, err := names.Resolve(property.TypeID)
	if err != nil {
		return Property{}, err
	}

	switch typeName {
	case "ArrayProperty":
		property.Kind = KindArray
		property.Value, err = readArray(c, names, name, depth)

	case "BoolProperty":
		property.Kind = KindBool
		var raw uint32
		raw, err = memory.ReadInt[uint32](c)
		property.Value = raw != 0

	case "ByteProperty":
		// A declared size of exactly 1 is a true one-byte enumerant;
		// anything else is a second name-table reference laid out like a
		// name property. The chosen branch drives the encode path.
		if property.Size == 1 {
			property.Kind = KindByte
			property.Value, err = memory.ReadInt[uint8](c)
		} else {
			property.Kind = KindName
			property.Value, err = readNameValue(c)
		}

	case "FloatProperty":
		property.Kind = KindFloat
		property.Value, err = memory.ReadFloat[float32](c)

	case "IntProperty":
		property.Kind = KindInt
		property.Value, err = memory.ReadInt[int32](c)

	case "NameProperty":
		property.Kind = KindName
		property.Value, err = readNameValue(c)

	case "ObjectProperty":
		property.Kind = KindObject
		property.Value, err = memory.ReadInt[int32](c)

	case "StrProperty":
		property.Kind = KindStr
		property.Value, err = ue.ReadString(c)

	case "StringRefProperty":
		property.Kind = KindStringRef
		property.Value, err = memory.ReadInt[int32](c)

	case "StructProperty":
		property.Kind = KindStruct
		property.Value, err = readStruct(c, names, depth)

	default:
		return Property{}, errors.Wrapf(ErrUnknownPropertyType, "%s (property %s)", typeName, name)
	}
	if err != nil {
		return Property{}, errors.Wrapf(err, "property %s (%s)", name, typeName)
	}

	return property, nil
}

func readNameValue(c *memory.Cursor) (NameValue, error) {
	nameID, err := memory.ReadInt[uint32](c)
	if err != nil {
		return NameValue{}, err
	}
	pad, err := memory.ReadSpan(c, 4)
	if err != nil {
		return NameValue{}, err
	}
	return NameValue{NameID: nameID, Pad: pad}, nil
}

func readArray(c *memory.Cursor, names NameTable, propertyName string, depth int) (ArrayValue, error) {
	count, err := memory.ReadInt[uint32](c)
	if err != nil {
		return ArrayValue{}, errors.Wrap(err, "element count")
	}

	kind, known := arrayElementKinds[propertyName]
	if !known {
		kind = ArrayKindProperties
	}

	result := ArrayValue{Kind: kind}
	for i := uint32(0); i < count; i++ {
		var item interface{}
		switch kind {
		case ArrayKindInt, ArrayKindObject:
			item, err = memory.ReadInt[int32](c)
		case ArrayKindVector:
			item, err = ue.ReadVector(c)
		case ArrayKindString:
			item, err = ue.ReadString(c)
		case ArrayKindProperties:
			item, err = readProperties(c, names, depth+1)
		}
		if err != nil {
			return ArrayValue{}, errors.Wrapf(err, "element %d", i)
		}
		result.Items = append(result.Items, item)
	}

	return result, nil
}

func readStruct(c *memory.Cursor, names NameTable, depth int) (StructValue, error) {
	structNameID, err := memory.ReadInt[uint32](c)
	if err != nil {
		return StructValue{}, errors.Wrap(err, "struct name id")
	}
	pad, err := memory.ReadSpan(c, 4)
	if err != nil {
		return StructValue{}, err
	}

	structName, err := names.Resolve(structNameID)
	if err != nil {
		return StructValue{}, err
	}

	result := StructValue{StructNameID: structNameID, Pad: pad}
	switch structName {
	case structLinearColor:
		result.Payload, err = ue.ReadLinearColor(c)
	case structVector:
		result.Payload, err = ue.ReadVector(c)
	case structRotator:
		result.Payload, err = ue.ReadRotator(c)
	default:
		result.Payload, err = readProperties(c, names, depth+1)
	}
	if err != nil {
		return StructValue{}, errors.Wrapf(err, "struct %s", structName)
	}

	return result, nil
}

func writeProperties(w *memory.Writer, properties []Property) error {
	for i := range properties {
		if err := writeProperty(w, &properties[i]); err != nil {
			return errors.Wrapf(err, "property %d", i)
		}
	}
	return nil
}

func writeProperty(w *memory.Writer, p *Property) error {
	memory.WriteInt(w, p.NameID)
	p.Pad1.Write(w)
	if p.Kind == KindNone {
		return nil
	}

	memory.WriteInt(w, p.TypeID)
	p.Pad2.Write(w)
	memory.WriteInt(w, p.Size)
	p.Pad3.Write(w)

	switch p.Kind {
	case KindArray:
		return writeArray(w, p.Value.(ArrayValue))

	case KindBool:
		var raw uint32
		if p.Value.(bool) {
			raw = 1
		}
		memory.WriteInt(w, raw)

	case KindByte:
		memory.WriteInt(w, p.Value.(uint8))

	case KindFloat:
		memory.WriteFloat(w, p.Value.(float32))

	case KindInt:
		memory.WriteInt(w, p.Value.(int32))

	case KindName:
		nv := p.Value.(NameValue)
		memory.WriteInt(w, nv.NameID)
		nv.Pad.Write(w)

	case KindObject:
		memory.WriteInt(w, p.Value.(int32))

	case KindStr:
		if err := ue.WriteString(w, p.Value.(string)); err != nil {
			return errors.Wrapf(ErrValueOutOfRange, "%v", err)
		}

	case KindStringRef:
		memory.WriteInt(w, p.Value.(int32))

	case KindStruct:
		sv := p.Value.(StructValue)
		memory.WriteInt(w, sv.StructNameID)
		sv.Pad.Write(w)
		switch payload := sv.Payload.(type) {
		case ue.LinearColor:
			payload.Write(w)
		case ue.Vector:
			payload.Write(w)
		case ue.Rotator:
			payload.Write(w)
		case []Property:
			return writeProperties(w, payload)
		}
	}

	return nil
}

func writeArray(w *memory.Writer, a ArrayValue) error {
	memory.WriteInt(w, uint32(len(a.Items)))
	for i, item := range a.Items {
		var err error
		switch a.Kind {
		case ArrayKindInt, ArrayKindObject:
			memory.WriteInt(w, item.(int32))
		case ArrayKindVector:
			item.(ue.Vector).Write(w)
		case ArrayKindString:
			if werr := ue.WriteString(w, item.(string)); werr != nil {
				err = errors.Wrapf(ErrValueOutOfRange, "%v", werr)
			}
		case ArrayKindProperties:
			err = writeProperties(w, item.([]Property))
		}
		if err != nil {
			return errors.Wrapf(err, "element %d", i)
		}
	}
	return nil
}
