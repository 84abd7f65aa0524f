package scip

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// The artifact is a standard protobuf message. Decoding it with protowire
// keeps the full generated-bindings dependency off the hot path; only the
// fields the extractor consumes are materialized.
//
// Field numbers (scip.proto):
//
//	Index:             documents = 2
//	Document:          relative_path = 1, occurrences = 2, symbols = 3, language = 4
//	SymbolInformation: symbol = 1, documentation = 3, kind = 5,
//	                   display_name = 6, signature_documentation = 7
//	Occurrence:        range = 1, symbol = 2, symbol_roles = 3

// DecodeIndex parses a raw SCIP artifact into an Index.
func DecodeIndex(data []byte) (*Index, error) {
	var idx Index
	if err := walkFields(data, func(num protowire.Number, typ protowire.Type, val []byte, varint uint64) error {
		if num == 2 && typ == protowire.BytesType {
			doc, err := decodeDocument(val)
			if err != nil {
				return err
			}
			idx.Documents = append(idx.Documents, *doc)
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("scip: decode index: %w", err)
	}
	return &idx, nil
}

func decodeDocument(data []byte) (*Document, error) {
	var doc Document
	err := walkFields(data, func(num protowire.Number, typ protowire.Type, val []byte, varint uint64) error {
		switch {
		case num == 1 && typ == protowire.BytesType:
			doc.RelativePath = string(val)
		case num == 2 && typ == protowire.BytesType:
			occ, err := decodeOccurrence(val)
			if err != nil {
				return err
			}
			doc.Occurrences = append(doc.Occurrences, *occ)
		case num == 3 && typ == protowire.BytesType:
			info, err := decodeSymbolInformation(val)
			if err != nil {
				return err
			}
			doc.Symbols = append(doc.Symbols, *info)
		case num == 4 && typ == protowire.BytesType:
			doc.Language = string(val)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func decodeSymbolInformation(data []byte) (*SymbolInformation, error) {
	var info SymbolInformation
	err := walkFields(data, func(num protowire.Number, typ protowire.Type, val []byte, varint uint64) error {
		switch {
		case num == 1 && typ == protowire.BytesType:
			info.Symbol = string(val)
		case num == 3 && typ == protowire.BytesType:
			info.Documentation = append(info.Documentation, string(val))
		case num == 5 && typ == protowire.VarintType:
			info.Kind = Kind(varint)
		case num == 6 && typ == protowire.BytesType:
			info.DisplayName = string(val)
		case num == 7 && typ == protowire.BytesType:
			// signature_documentation is itself a Document; its text
			// lives in field 5.
			text, err := decodeDocumentText(val)
			if err != nil {
				return err
			}
			info.SignatureText = text
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// decodeDocumentText pulls only the text field (5) out of a nested Document.
func decodeDocumentText(data []byte) (string, error) {
	var text string
	err := walkFields(data, func(num protowire.Number, typ protowire.Type, val []byte, varint uint64) error {
		if num == 5 && typ == protowire.BytesType {
			text = string(val)
		}
		return nil
	})
	return text, err
}

func decodeOccurrence(data []byte) (*Occurrence, error) {
	var occ Occurrence
	err := walkFields(data, func(num protowire.Number, typ protowire.Type, val []byte, varint uint64) error {
		switch {
		case num == 1 && typ == protowire.BytesType:
			// Packed repeated int32.
			for len(val) > 0 {
				v, n := protowire.ConsumeVarint(val)
				if n < 0 {
					return fmt.Errorf("scip: malformed packed range")
				}
				occ.Range = append(occ.Range, int32(v))
				val = val[n:]
			}
		case num == 1 && typ == protowire.VarintType:
			// Unpacked encoding is legal for repeated scalars.
			occ.Range = append(occ.Range, int32(varint))
		case num == 2 && typ == protowire.BytesType:
			occ.Symbol = string(val)
		case num == 3 && typ == protowire.VarintType:
			occ.SymbolRoles = int32(varint)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &occ, nil
}

// walkFields iterates the top-level fields of one protobuf message, calling
// fn per field. Bytes fields pass their payload via val; varint fields pass
// the value via varint. Unknown fields and wire types are skipped.
func walkFields(data []byte, fn func(num protowire.Number, typ protowire.Type, val []byte, varint uint64) error) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("scip: malformed tag: %v", protowire.ParseError(n))
		}
		data = data[n:]

		switch typ {
		case protowire.VarintType:
			v, m := protowire.ConsumeVarint(data)
			if m < 0 {
				return fmt.Errorf("scip: malformed varint for field %d", num)
			}
			if err := fn(num, typ, nil, v); err != nil {
				return err
			}
			data = data[m:]
		case protowire.BytesType:
			v, m := protowire.ConsumeBytes(data)
			if m < 0 {
				return fmt.Errorf("scip: malformed bytes for field %d", num)
			}
			if err := fn(num, typ, v, 0); err != nil {
				return err
			}
			data = data[m:]
		default:
			m := protowire.ConsumeFieldValue(num, typ, data)
			if m < 0 {
				return fmt.Errorf("scip: malformed field %d", num)
			}
			data = data[m:]
		}
	}
	return nil
}
