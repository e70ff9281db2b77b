package me1

import (
	"testing"

	"github.com/kylelemons/godebug/pretty"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"masseffect-save-edit/memory"
	"masseffect-save-edit/ue"
)

// Distinct pad patterns so the tests catch an encoder that emits zeroes
// instead of replaying captured spans.
var (
	padA = memory.Span{0xA1, 0xA2, 0xA3, 0xA4}
	padB = memory.Span{0xB1, 0xB2, 0xB3, 0xB4}
	padC = memory.Span{0xC1, 0xC2, 0xC3, 0xC4}
	padD = memory.Span{0xD1, 0xD2, 0xD3, 0xD4}
)

func testTable(names ...string) (NameTable, map[string]uint32) {
	table := make(NameTable, 0, len(names))
	ids := make(map[string]uint32, len(names))
	for i, n := range names {
		table = append(table, Name{Value: n, Trailer: memory.Span{0, 0, 0, 0, 0, 0, 0, 0}})
		ids[n] = uint32(i)
	}
	return table, ids
}

func writeHeader(w *memory.Writer, ids map[string]uint32, name, typeName string, size uint32) {
	memory.WriteInt(w, ids[name])
	padA.Write(w)
	memory.WriteInt(w, ids[typeName])
	padB.Write(w)
	memory.WriteInt(w, size)
	padC.Write(w)
}

func writeNone(w *memory.Writer, ids map[string]uint32) {
	memory.WriteInt(w, ids["None"])
	padA.Write(w)
}

func decodeList(t *testing.T, table NameTable, raw []byte) []Property {
	t.Helper()
	c := memory.NewCursor(raw)
	properties, err := readProperties(c, table, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, c.Remaining(), "decode must consume the whole list")
	return properties
}

func encodeList(t *testing.T, properties []Property) []byte {
	t.Helper()
	w := memory.NewWriter()
	require.NoError(t, writeProperties(w, properties))
	return w.Bytes()
}

func TestPropertyListTerminator(t *testing.T) {
	table, ids := testTable("None", "IntProperty", "m_Level")

	w := memory.NewWriter()
	writeHeader(w, ids, "m_Level", "IntProperty", 4)
	memory.WriteInt(w, int32(42))
	writeNone(w, ids)

	properties := decodeList(t, table, w.Bytes())

	require.Len(t, properties, 2)
	assert.Equal(t, KindInt, properties[0].Kind)
	assert.Equal(t, int32(42), properties[0].Value)

	terminators := 0
	for _, p := range properties {
		if p.Kind == KindNone {
			terminators++
		}
	}
	assert.Equal(t, 1, terminators)
	assert.Equal(t, KindNone, properties[len(properties)-1].Kind)
}

func buildFullList(t *testing.T) (NameTable, map[string]uint32, []byte) {
	t.Helper()
	table, ids := testTable(
		"None",
		"ArrayProperty", "BoolProperty", "ByteProperty", "FloatProperty",
		"IntProperty", "NameProperty", "ObjectProperty", "StrProperty",
		"StringRefProperty", "StructProperty",
		"LinearColor", "Vector", "Rotator", "TalentEntry",
		"m_Level", "m_CurrentXP", "m_IsFemale", "m_FirstName",
		"m_LastNameRef", "m_TargetObject", "m_RawFlag", "m_Gender",
		"Gender_Female", "m_DebugName", "m_TintColor", "m_Location",
		"m_Facing", "m_Talent", "m_TalentID",
		"m_PrereqTalentIDArray", "m_aEquipped", "m_vPosition",
		"m_DependentPackages", "m_TalentList",
	)

	w := memory.NewWriter()

	writeHeader(w, ids, "m_Level", "IntProperty", 4)
	memory.WriteInt(w, int32(57))

	writeHeader(w, ids, "m_CurrentXP", "FloatProperty", 4)
	memory.WriteFloat(w, float32(1234.5))

	writeHeader(w, ids, "m_IsFemale", "BoolProperty", 4)
	memory.WriteInt(w, uint32(1))

	writeHeader(w, ids, "m_FirstName", "StrProperty", 9)
	require.NoError(t, ue.WriteString(w, "Jane"))

	writeHeader(w, ids, "m_LastNameRef", "StringRefProperty", 4)
	memory.WriteInt(w, int32(125303))

	writeHeader(w, ids, "m_TargetObject", "ObjectProperty", 4)
	memory.WriteInt(w, int32(-1))

	// byte property, declared size 1: a true enumerant byte
	writeHeader(w, ids, "m_RawFlag", "ByteProperty", 1)
	memory.WriteInt(w, uint8(3))

	// byte property, declared size 8: a name-table reference
	writeHeader(w, ids, "m_Gender", "ByteProperty", 8)
	memory.WriteInt(w, ids["Gender_Female"])
	padD.Write(w)

	writeHeader(w, ids, "m_DebugName", "NameProperty", 8)
	memory.WriteInt(w, ids["m_Level"])
	padD.Write(w)

	writeHeader(w, ids, "m_TintColor", "StructProperty", 16)
	memory.WriteInt(w, ids["LinearColor"])
	padD.Write(w)
	ue.LinearColor{R: 0.1, G: 0.2, B: 0.3, A: 1}.Write(w)

	writeHeader(w, ids, "m_Location", "StructProperty", 12)
	memory.WriteInt(w, ids["Vector"])
	padD.Write(w)
	ue.Vector{X: 10, Y: 20, Z: 30}.Write(w)

	writeHeader(w, ids, "m_Facing", "StructProperty", 12)
	memory.WriteInt(w, ids["Rotator"])
	padD.Write(w)
	ue.Rotator{Pitch: 0, Yaw: 16384, Roll: 0}.Write(w)

	// user-defined struct: a nested property list
	writeHeader(w, ids, "m_Talent", "StructProperty", 36)
	memory.WriteInt(w, ids["TalentEntry"])
	padD.Write(w)
	writeHeader(w, ids, "m_TalentID", "IntProperty", 4)
	memory.WriteInt(w, int32(91))
	writeNone(w, ids)

	writeHeader(w, ids, "m_PrereqTalentIDArray", "ArrayProperty", 12)
	memory.WriteInt(w, uint32(2))
	memory.WriteInt(w, int32(7))
	memory.WriteInt(w, int32(8))

	writeHeader(w, ids, "m_aEquipped", "ArrayProperty", 8)
	memory.WriteInt(w, uint32(1))
	memory.WriteInt(w, int32(441))

	writeHeader(w, ids, "m_vPosition", "ArrayProperty", 16)
	memory.WriteInt(w, uint32(1))
	ue.Vector{X: -5, Y: 0, Z: 5}.Write(w)

	writeHeader(w, ids, "m_DependentPackages", "ArrayProperty", 17)
	memory.WriteInt(w, uint32(1))
	require.NoError(t, ue.WriteString(w, "BIOA_STA00"))

	// array not covered by the static table: nested property lists
	writeHeader(w, ids, "m_TalentList", "ArrayProperty", 48)
	memory.WriteInt(w, uint32(2))
	for _, id := range []int32{1, 2} {
		writeHeader(w, ids, "m_TalentID", "IntProperty", 4)
		memory.WriteInt(w, id)
		writeNone(w, ids)
	}

	writeNone(w, ids)

	return table, ids, w.Bytes()
}

func TestRoundTripIdentity(t *testing.T) {
	table, _, raw := buildFullList(t)

	properties := decodeList(t, table, raw)
	encoded := encodeList(t, properties)

	require.Equal(t, raw, encoded, "encode(decode(x)) must be byte identical")
}

func TestIdempotentRedecode(t *testing.T) {
	table, _, raw := buildFullList(t)

	first := decodeList(t, table, raw)
	second := decodeList(t, table, encodeList(t, first))

	if diff := pretty.Compare(first, second); diff != "" {
		t.Fatalf("re-decoded tree differs:\n%s", diff)
	}
}

func TestNameTableIndexStability(t *testing.T) {
	table, _, raw := buildFullList(t)

	properties := decodeList(t, table, raw)
	Walk(properties, func(p *Property) {
		name, err := table.Resolve(p.NameID)
		require.NoError(t, err)
		assert.NotEmpty(t, name)
		if p.Kind == KindNone {
			return
		}
		typeName, err := table.Resolve(p.TypeID)
		require.NoError(t, err)
		assert.NotEmpty(t, typeName)
	})
}

func TestByteAmbiguityPreserved(t *testing.T) {
	table, ids := testTable("None", "ByteProperty", "m_RawFlag", "m_Gender", "Gender_Male")

	t.Run("size 1 decodes an enumerant byte", func(t *testing.T) {
		w := memory.NewWriter()
		writeHeader(w, ids, "m_RawFlag", "ByteProperty", 1)
		memory.WriteInt(w, uint8(7))
		writeNone(w, ids)
		raw := w.Bytes()

		properties := decodeList(t, table, raw)
		require.Equal(t, KindByte, properties[0].Kind)
		assert.Equal(t, uint8(7), properties[0].Value)
		assert.Equal(t, uint32(1), properties[0].Size)

		assert.Equal(t, raw, encodeList(t, properties))
	})

	t.Run("other sizes decode a name reference", func(t *testing.T) {
		w := memory.NewWriter()
		writeHeader(w, ids, "m_Gender", "ByteProperty", 8)
		memory.WriteInt(w, ids["Gender_Male"])
		padD.Write(w)
		writeNone(w, ids)
		raw := w.Bytes()

		properties := decodeList(t, table, raw)
		require.Equal(t, KindName, properties[0].Kind)
		assert.Equal(t, uint32(8), properties[0].Size)

		nv := properties[0].Value.(NameValue)
		assert.Equal(t, ids["Gender_Male"], nv.NameID)

		// the type id still resolves to ByteProperty, the payload to a name
		typeName, err := table.Resolve(properties[0].TypeID)
		require.NoError(t, err)
		assert.Equal(t, "ByteProperty", typeName)

		assert.Equal(t, raw, encodeList(t, properties))
	})
}

func TestArrayElementKindTable(t *testing.T) {
	for name, kind := range arrayElementKinds {
		name, kind := name, kind
		t.Run(name, func(t *testing.T) {
			table, ids := testTable("None", "ArrayProperty", name)

			w := memory.NewWriter()
			writeHeader(w, ids, name, "ArrayProperty", 0)
			memory.WriteInt(w, uint32(1))
			switch kind {
			case ArrayKindInt, ArrayKindObject:
				memory.WriteInt(w, int32(11))
			case ArrayKindVector:
				ue.Vector{X: 1, Y: 2, Z: 3}.Write(w)
			case ArrayKindString:
				require.NoError(t, ue.WriteString(w, "pkg"))
			default:
				t.Fatalf("static table must never map to nested property lists")
			}
			writeNone(w, ids)
			raw := w.Bytes()

			properties := decodeList(t, table, raw)
			av := properties[0].Value.(ArrayValue)
			assert.Equal(t, kind, av.Kind)
			assert.NotEqual(t, ArrayKindProperties, av.Kind)
			assert.Equal(t, raw, encodeList(t, properties))
		})
	}
}

func TestUnknownPropertyType(t *testing.T) {
	table, ids := testTable("None", "DelegateProperty", "m_Handler")

	w := memory.NewWriter()
	writeHeader(w, ids, "m_Handler", "DelegateProperty", 4)
	memory.WriteInt(w, int32(0))
	writeNone(w, ids)

	c := memory.NewCursor(w.Bytes())
	properties, err := readProperties(c, table, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownPropertyType))
	assert.Nil(t, properties, "no partial result on decode failure")
}

func TestNameIndexOutOfRange(t *testing.T) {
	table, _ := testTable("None")

	w := memory.NewWriter()
	memory.WriteInt(w, uint32(99))
	padA.Write(w)

	_, err := readProperties(memory.NewCursor(w.Bytes()), table, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNameIndexOutOfRange))
}

func TestTruncatedProperty(t *testing.T) {
	table, ids := testTable("None", "IntProperty", "m_Level")

	w := memory.NewWriter()
	writeHeader(w, ids, "m_Level", "IntProperty", 4)
	memory.WriteInt(w, int32(42))
	writeNone(w, ids)
	raw := w.Bytes()

	_, err := readProperties(memory.NewCursor(raw[:len(raw)-4]), table, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTruncatedInput))
}

func TestDepthCeiling(t *testing.T) {
	table, ids := testTable("None", "StructProperty", "NodeStruct", "m_Node")

	terminator := memory.NewWriter()
	writeNone(terminator, ids)
	noneBytes := terminator.Bytes()

	list := noneBytes
	for i := 0; i <= maxDepth+1; i++ {
		w := memory.NewWriter()
		writeHeader(w, ids, "m_Node", "StructProperty", 0)
		memory.WriteInt(w, ids["NodeStruct"])
		padD.Write(w)
		w.WriteBytes(list)
		w.WriteBytes(noneBytes)
		list = w.Bytes()
	}

	_, err := readProperties(memory.NewCursor(list), table, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDepthExceeded))
}

func TestSetStringRecomputesSize(t *testing.T) {
	table, ids := testTable("None", "StrProperty", "m_FirstName")

	w := memory.NewWriter()
	writeHeader(w, ids, "m_FirstName", "StrProperty", 9)
	require.NoError(t, ue.WriteString(w, "Jane"))
	writeNone(w, ids)

	properties := decodeList(t, table, w.Bytes())
	p := &properties[0]

	require.NoError(t, p.SetString("Commander"))
	assert.Equal(t, uint32(4+len("Commander")+1), p.Size)

	// the re-encoded bytes must decode back to the edited value
	again := decodeList(t, table, encodeList(t, properties))
	assert.Equal(t, "Commander", again[0].Value)
	assert.Equal(t, p.Size, again[0].Size)
}

func TestSettersRejectWrongKind(t *testing.T) {
	p := Property{Kind: KindInt, Value: int32(1)}
	assert.Error(t, p.SetFloat(1.0))
	assert.Error(t, p.SetString("x"))
	assert.NoError(t, p.SetInt(2))
	assert.Equal(t, int32(2), p.Value)
}

func TestSizeReplayedVerbatim(t *testing.T) {
	table, ids := testTable("None", "IntProperty", "m_Level")

	// declared size deliberately disagrees with the 4-byte payload;
	// untouched nodes replay it anyway
	w := memory.NewWriter()
	writeHeader(w, ids, "m_Level", "IntProperty", 77)
	memory.WriteInt(w, int32(1))
	writeNone(w, ids)
	raw := w.Bytes()

	properties := decodeList(t, table, raw)
	assert.Equal(t, uint32(77), properties[0].Size)
	assert.Equal(t, raw, encodeList(t, properties))
}
