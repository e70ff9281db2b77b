package me1

import (
	"github.com/pkg/errors"

	"masseffect-save-edit/memory"
	"masseffect-save-edit/ue"
)

// Name is one interned string of a record's name table. The trailing eight
// bytes carry flags the codec never interprets.
type Name struct {
	Value   string
	Trailer memory.Span // 8 bytes
}

// NameTable backs all dynamic type and identifier resolution of a single
// record. It is decoded once, addressed by index, and never mutated while
// the record is open; re-encoding replays the entries in file order so
// indices held by property nodes stay valid.
type NameTable []Name

func (t NameTable) Resolve(index uint32) (string, error) {
	if int(index) >= len(t) {
		return "", errors.Wrapf(ErrNameIndexOutOfRange, "index %d, table holds %d names", index, len(t))
	}
	return t[index].Value, nil
}

func readNameTable(c *memory.Cursor) (NameTable, error) {
	count, err := memory.ReadInt[uint32](c)
	if err != nil {
		return nil, errors.Wrap(err, "name count")
	}

	table := make(NameTable, 0, count)
	for i := uint32(0); i < count; i++ {
		value, err := ue.ReadString(c)
		if err != nil {
			return nil, errors.Wrapf(err, "name %d", i)
		}
		trailer, err := memory.ReadSpan(c, 8)
		if err != nil {
			return nil, errors.Wrapf(err, "name %d trailer", i)
		}
		table = append(table, Name{Value: value, Trailer: trailer})
	}

	return table, nil
}

func (t NameTable) write(w *memory.Writer) error {
	memory.WriteInt(w, uint32(len(t)))
	for i, name := range t {
		if err := ue.WriteString(w, name.Value); err != nil {
			return errors.Wrapf(err, "name %d", i)
		}
		name.Trailer.Write(w)
	}
	return nil
}

// Data is the property-list payload of the dynamically-typed record: four
// uninterpreted bytes followed by a self-terminating property list.
type Data struct {
	Lead       memory.Span // 4 bytes
	Properties []Property
}

func readData(c *memory.Cursor, names NameTable) (Data, error) {
	lead, err := memory.ReadSpan(c, 4)
	if err != nil {
		return Data{}, errors.Wrap(err, "data lead")
	}
	properties, err := readProperties(c, names, 0)
	if err != nil {
		return Data{}, err
	}
	return Data{Lead: lead, Properties: properties}, nil
}

func (d *Data) write(w *memory.Writer) error {
	d.Lead.Write(w)
	return writeProperties(w, d.Properties)
}

// Player is the dynamically-typed record stored as the player.sav archive
// entry: an opaque leading region whose length comes from the offset field,
// the name table, then one data block.
type Player struct {
	Begin       memory.Span // 8 bytes
	TableOffset uint32
	NoMansLand  memory.Span // TableOffset-12 bytes
	Names       NameTable
	Data        Data
}

func DecodePlayer(raw []byte) (*Player, error) {
	c := memory.NewCursor(raw)

	begin, err := memory.ReadSpan(c, 8)
	if err != nil {
		return nil, errors.Wrap(err, "player begin")
	}
	tableOffset, err := memory.ReadInt[uint32](c)
	if err != nil {
		return nil, errors.Wrap(err, "player table offset")
	}
	if int(tableOffset) < c.Position() {
		return nil, errors.Wrapf(ErrContainerFormat, "player table offset %d is inside the header", tableOffset)
	}
	noMansLand, err := memory.ReadSpan(c, int(tableOffset)-c.Position())
	if err != nil {
		return nil, errors.Wrap(err, "player no man's land")
	}

	names, err := readNameTable(c)
	if err != nil {
		return nil, errors.Wrap(err, "player name table")
	}

	data, err := readData(c, names)
	if err != nil {
		return nil, errors.Wrap(err, "player data")
	}

	return &Player{
		Begin:       begin,
		TableOffset: tableOffset,
		NoMansLand:  noMansLand,
		Names:       names,
		Data:        data,
	}, nil
}

func (p *Player) Encode() ([]byte, error) {
	w := memory.NewWriter()
	p.Begin.Write(w)
	memory.WriteInt(w, p.TableOffset)
	p.NoMansLand.Write(w)
	if err := p.Names.write(w); err != nil {
		return nil, errors.Wrap(err, "player name table")
	}
	if err := p.Data.write(w); err != nil {
		return nil, errors.Wrap(err, "player data")
	}
	return w.Bytes(), nil
}
