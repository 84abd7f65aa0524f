package scip

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

// ---------------------------------------------------------------------------
// Wire encoding helpers (tests build artifacts the decoder must read)
// ---------------------------------------------------------------------------

func encodeOccurrence(occ Occurrence) []byte {
	var b []byte
	if len(occ.Range) > 0 {
		var packed []byte
		for _, v := range occ.Range {
			packed = protowire.AppendVarint(packed, uint64(v))
		}
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendBytes(b, packed)
	}
	if occ.Symbol != "" {
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendString(b, occ.Symbol)
	}
	if occ.SymbolRoles != 0 {
		b = protowire.AppendTag(b, 3, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(occ.SymbolRoles))
	}
	return b
}

func encodeSymbolInformation(info SymbolInformation) []byte {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendString(b, info.Symbol)
	for _, doc := range info.Documentation {
		b = protowire.AppendTag(b, 3, protowire.BytesType)
		b = protowire.AppendString(b, doc)
	}
	if info.Kind != 0 {
		b = protowire.AppendTag(b, 5, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(info.Kind))
	}
	if info.DisplayName != "" {
		b = protowire.AppendTag(b, 6, protowire.BytesType)
		b = protowire.AppendString(b, info.DisplayName)
	}
	if info.SignatureText != "" {
		var sig []byte
		sig = protowire.AppendTag(sig, 5, protowire.BytesType)
		sig = protowire.AppendString(sig, info.SignatureText)
		b = protowire.AppendTag(b, 7, protowire.BytesType)
		b = protowire.AppendBytes(b, sig)
	}
	return b
}

func encodeDocument(doc Document) []byte {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendString(b, doc.RelativePath)
	for _, occ := range doc.Occurrences {
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeOccurrence(occ))
	}
	for _, info := range doc.Symbols {
		b = protowire.AppendTag(b, 3, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeSymbolInformation(info))
	}
	if doc.Language != "" {
		b = protowire.AppendTag(b, 4, protowire.BytesType)
		b = protowire.AppendString(b, doc.Language)
	}
	return b
}

func encodeIndex(docs ...Document) []byte {
	var b []byte
	for _, doc := range docs {
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeDocument(doc))
	}
	return b
}

// ---------------------------------------------------------------------------
// DecodeIndex
// ---------------------------------------------------------------------------

func TestDecodeIndex_RoundTrip(t *testing.T) {
	want := testDocument()
	data := encodeIndex(want)

	idx, err := DecodeIndex(data)
	require.NoError(t, err)
	require.Len(t, idx.Documents, 1)

	got := idx.Documents[0]
	assert.Equal(t, want.RelativePath, got.RelativePath)
	require.Len(t, got.Symbols, len(want.Symbols))
	assert.Equal(t, want.Symbols[0].Symbol, got.Symbols[0].Symbol)
	assert.Equal(t, want.Symbols[0].Kind, got.Symbols[0].Kind)
	assert.Equal(t, want.Symbols[0].DisplayName, got.Symbols[0].DisplayName)
	assert.Equal(t, want.Symbols[0].SignatureText, got.Symbols[0].SignatureText)
	assert.Equal(t, want.Symbols[0].Documentation, got.Symbols[0].Documentation)

	require.Len(t, got.Occurrences, len(want.Occurrences))
	assert.Equal(t, want.Occurrences[0].Range, got.Occurrences[0].Range)
	assert.Equal(t, want.Occurrences[0].SymbolRoles, got.Occurrences[0].SymbolRoles)
}

func TestDecodeIndex_EmptyInput(t *testing.T) {
	idx, err := DecodeIndex(nil)
	require.NoError(t, err)
	assert.Empty(t, idx.Documents)
}

func TestDecodeIndex_Malformed(t *testing.T) {
	_, err := DecodeIndex([]byte{0xff, 0xff, 0xff})
	assert.Error(t, err)
}

func TestDecodeIndex_SkipsUnknownFields(t *testing.T) {
	// Prepend a metadata field (1) the decoder does not model.
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendBytes(b, []byte("opaque metadata"))
	b = append(b, encodeIndex(testDocument())...)

	idx, err := DecodeIndex(b)
	require.NoError(t, err)
	assert.Len(t, idx.Documents, 1)
}
