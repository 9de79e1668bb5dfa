package ekuaibao

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ericfisherdev/requisitionbot/internal/domain/model"
)

// decodeForm normalises a template form into an ordered field list. The
// platform sends either an array of single-key objects
//
//	[{"title": {...}}, {"requisitionMoney": {...}}]
//
// or one flat object
//
//	{"title": {...}, "requisitionMoney": {...}}
//
// Both yield the same fields in document order. A field whose config is not
// an object gets a nil Config; array entries that are not objects carry no
// field name and are skipped.
func decodeForm(raw json.RawMessage) ([]model.RawField, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	switch trimmed[0] {
	case '[':
		return decodeFormList(trimmed)
	case '{':
		members, err := decodeObjectMembers(trimmed)
		if err != nil {
			return nil, fmt.Errorf("decode form object: %w", err)
		}
		return membersToFields(nil, members), nil
	default:
		return nil, fmt.Errorf("unsupported form shape starting with %q", trimmed[0])
	}
}

func decodeFormList(raw []byte) ([]model.RawField, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode form list: %w", err)
	}

	var fields []model.RawField
	for _, entry := range entries {
		members, err := decodeObjectMembers(entry)
		if err != nil {
			continue
		}
		fields = membersToFields(fields, members)
	}
	return fields, nil
}

type member struct {
	key   string
	value json.RawMessage
}

// decodeObjectMembers decodes a JSON object keeping member order, which a
// map would lose.
func decodeObjectMembers(raw []byte) ([]member, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("not an object")
	}

	var members []member
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected object key %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("decode member %q: %w", key, err)
		}
		members = append(members, member{key: key, value: value})
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return members, nil
}

func membersToFields(fields []model.RawField, members []member) []model.RawField {
	for _, m := range members {
		var config map[string]any
		if err := json.Unmarshal(m.value, &config); err != nil {
			config = nil
		}
		fields = append(fields, model.RawField{Name: m.key, Config: config})
	}
	return fields
}
