package me1

import (
	"github.com/pkg/errors"

	"masseffect-save-edit/ue"
)

// Leaf setters for the generic editing layer. An edit replaces a scalar
// value only; the node's kind, name-table references and structural shape
// never change. Fixed-width leaves keep their declared size; variable-width
// leaves recompute it.

func (p *Property) SetInt(value int32) error {
	if p.Kind != KindInt {
		return errors.Errorf("cannot set int on %s property", p.Kind)
	}
	p.Value = value
	return nil
}

func (p *Property) SetFloat(value float32) error {
	if p.Kind != KindFloat {
		return errors.Errorf("cannot set float on %s property", p.Kind)
	}
	p.Value = value
	return nil
}

func (p *Property) SetBool(value bool) error {
	if p.Kind != KindBool {
		return errors.Errorf("cannot set bool on %s property", p.Kind)
	}
	p.Value = value
	return nil
}

func (p *Property) SetByte(value uint8) error {
	if p.Kind != KindByte {
		return errors.Errorf("cannot set byte on %s property", p.Kind)
	}
	p.Value = value
	return nil
}

func (p *Property) SetObject(value int32) error {
	if p.Kind != KindObject {
		return errors.Errorf("cannot set object id on %s property", p.Kind)
	}
	p.Value = value
	return nil
}

func (p *Property) SetStringRef(value int32) error {
	if p.Kind != KindStringRef {
		return errors.Errorf("cannot set string ref on %s property", p.Kind)
	}
	p.Value = value
	return nil
}

// SetString replaces a string leaf and recomputes the node's declared size
// from the new wire representation.
func (p *Property) SetString(value string) error {
	if p.Kind != KindStr {
		return errors.Errorf("cannot set string on %s property", p.Kind)
	}
	size, err := ue.StringWireSize(value)
	if err != nil {
		return err
	}
	if size < 0 || int64(size) > int64(^uint32(0)) {
		return errors.Wrapf(ErrValueOutOfRange, "string wire size %d", size)
	}
	p.Value = value
	p.Size = uint32(size)
	return nil
}

// Walk visits every property of the tree depth-first, terminators included,
// descending into struct payloads and array elements.
func Walk(properties []Property, visit func(*Property)) {
	for i := range properties {
		p := &properties[i]
		visit(p)

		switch p.Kind {
		case KindStruct:
			if nested, ok := p.Value.(StructValue).Payload.([]Property); ok {
				Walk(nested, visit)
			}
		case KindArray:
			av := p.Value.(ArrayValue)
			if av.Kind != ArrayKindProperties {
				continue
			}
			for _, item := range av.Items {
				Walk(item.([]Property), visit)
			}
		}
	}
}
