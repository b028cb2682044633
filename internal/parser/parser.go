package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	stderrors "errors" // Standard errors package

	xjson "github.com/charmbracelet/x/json"

	"github.com/mcncl/jsonmend/internal/errors" // Custom errors package
	"github.com/mcncl/jsonmend/internal/models"
	"github.com/mcncl/jsonmend/internal/position"
)

// msgUnexpectedEnd is the message encoding/json reports for truncated input.
const msgUnexpectedEnd = "unexpected end of JSON input"

// msgAfterTopLevel appears in encoding/json errors for a second root value.
const msgAfterTopLevel = "after top-level value"

// SyntaxError is a strict parse failure. Offset is a character index into the
// parsed text, or -1 when the parser did not report one. Line and Column are
// filled from Offset whenever it is present, otherwise from a location named
// in the message.
type SyntaxError struct {
	Message string
	Offset  int
	Line    int
	Column  int
}

// Error implements the error interface
func (e *SyntaxError) Error() string {
	switch {
	case e.Located() && e.Offset >= 0:
		return fmt.Sprintf("%s at position %d (line %d, column %d)", e.Message, e.Offset, e.Line, e.Column)
	case e.Located():
		return fmt.Sprintf("%s (line %d, column %d)", e.Message, e.Line, e.Column)
	}
	return e.Message
}

// Unwrap ties every syntax error to errors.ErrInvalidJSON. Errors without a
// location also match errors.ErrNoPosition, and text continuing after a
// complete value matches errors.ErrMultipleJSON.
func (e *SyntaxError) Unwrap() []error {
	errs := []error{errors.ErrInvalidJSON}
	if !e.Located() {
		errs = append(errs, errors.ErrNoPosition)
	}
	if strings.Contains(e.Message, msgAfterTopLevel) {
		errs = append(errs, errors.ErrMultipleJSON)
	}
	return errs
}

// Located reports whether the error carries a resolved line and column.
func (e *SyntaxError) Located() bool {
	return e.Line > 0
}

// Position returns the resolved location of the error.
func (e *SyntaxError) Position() models.Position {
	return models.Position{Line: e.Line, Column: e.Column}
}

// ParseString parses text as strict JSON. It has no side effects; on failure
// the returned error is always a *SyntaxError.
func ParseString(text string) (models.Value, error) {
	if strings.TrimSpace(text) == "" {
		return models.Value{}, newSyntaxError(text, msgUnexpectedEnd, len(text))
	}

	if !xjson.IsValid(text) {
		return models.Value{}, locate(text)
	}

	decoder := json.NewDecoder(strings.NewReader(text))
	decoder.UseNumber() // Keep number literals exactly as written

	value, err := decodeValue(decoder)
	if err != nil {
		// The validity probe and the decoder disagree; trust the decoder.
		return models.Value{}, fromDecodeError(text, err)
	}
	return value, nil
}

// Valid reports whether text is strict JSON.
func Valid(text string) bool {
	return strings.TrimSpace(text) != "" && xjson.IsValid(text)
}

// Parse reads all of reader and parses it as strict JSON
func Parse(reader io.Reader) (models.Value, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return models.Value{}, errors.NewInputError("failed to read input", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return models.Value{}, errors.NewParsingError("input is empty or contains only whitespace", errors.ErrEmptyInput)
	}
	return ParseString(string(data))
}

// ReadFile returns the raw text of a JSON file, rejecting missing and empty files.
func ReadFile(filePath string) (string, error) {
	if strings.TrimSpace(filePath) == "" {
		return "", errors.NewInputError("file path is empty", errors.ErrInvalidFilePath)
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.NewInputError(
				fmt.Sprintf("file '%s' not found", filePath),
				errors.ErrFileNotFound,
			)
		}
		return "", errors.NewInputError(
			fmt.Sprintf("failed to open file '%s'", filePath),
			err,
		)
	}
	if len(data) == 0 {
		return "", errors.NewInputError(
			fmt.Sprintf("input file '%s' is empty", filePath),
			errors.ErrFileEmpty,
		)
	}
	return string(data), nil
}

// ParseFile parses JSON from a file path
func ParseFile(filePath string) (models.Value, error) {
	text, err := ReadFile(filePath)
	if err != nil {
		return models.Value{}, err
	}
	value, err := ParseString(text)
	if err != nil {
		return models.Value{}, errors.NewParsingError(fmt.Sprintf("'%s': %v", filePath, err), err)
	}
	return value, nil
}

// locate re-runs the standard library's validator to recover the failure
// message and offset.
func locate(text string) error {
	var discard any
	err := json.Unmarshal([]byte(text), &discard)
	if err == nil {
		return &SyntaxError{Message: "invalid JSON", Offset: -1}
	}
	return fromDecodeError(text, err)
}

// fromDecodeError converts an encoding/json error into a *SyntaxError with a
// character offset pointing at the offending character.
func fromDecodeError(text string, err error) *SyntaxError {
	var syntaxError *json.SyntaxError
	if stderrors.As(err, &syntaxError) {
		byteOffset := int(syntaxError.Offset)
		// encoding/json counts the offending byte as consumed, except at end of input.
		if syntaxError.Error() != msgUnexpectedEnd && byteOffset > 0 {
			byteOffset--
		}
		return newSyntaxError(text, syntaxError.Error(), byteOffset)
	}
	if stderrors.Is(err, io.ErrUnexpectedEOF) || stderrors.Is(err, io.EOF) {
		return newSyntaxError(text, msgUnexpectedEnd, len(text))
	}

	message := err.Error()
	if pos, ok := position.FromMessage(text, message); ok {
		return &SyntaxError{Message: message, Offset: -1, Line: pos.Line, Column: pos.Column}
	}
	return &SyntaxError{Message: message, Offset: -1}
}

func newSyntaxError(text, message string, byteOffset int) *SyntaxError {
	offset := position.RuneOffset(text, byteOffset)
	pos := position.Resolve(text, offset)
	return &SyntaxError{
		Message: message,
		Offset:  offset,
		Line:    pos.Line,
		Column:  pos.Column,
	}
}

// decodeValue builds an ordered Value from the decoder's token stream.
// Duplicate object keys keep their first position and their last value.
func decodeValue(decoder *json.Decoder) (models.Value, error) {
	token, err := decoder.Token()
	if err != nil {
		return models.Value{}, err
	}

	switch t := token.(type) {
	case json.Delim:
		switch t {
		case '{':
			members := []models.Member{}
			index := map[string]int{}
			for decoder.More() {
				keyToken, err := decoder.Token()
				if err != nil {
					return models.Value{}, err
				}
				key, ok := keyToken.(string)
				if !ok {
					return models.Value{}, fmt.Errorf("object key is %T, not a string", keyToken)
				}
				value, err := decodeValue(decoder)
				if err != nil {
					return models.Value{}, err
				}
				if i, seen := index[key]; seen {
					members[i].Value = value
					continue
				}
				index[key] = len(members)
				members = append(members, models.Member{Key: key, Value: value})
			}
			if _, err := decoder.Token(); err != nil {
				return models.Value{}, err
			}
			return models.Object(members...), nil
		case '[':
			items := []models.Value{}
			for decoder.More() {
				value, err := decodeValue(decoder)
				if err != nil {
					return models.Value{}, err
				}
				items = append(items, value)
			}
			if _, err := decoder.Token(); err != nil {
				return models.Value{}, err
			}
			return models.Array(items...), nil
		}
		return models.Value{}, fmt.Errorf("unexpected delimiter %q", rune(t))
	case string:
		return models.String(t), nil
	case json.Number:
		return models.Number(string(t)), nil
	case bool:
		return models.Bool(t), nil
	case nil:
		return models.Null(), nil
	}
	return models.Value{}, fmt.Errorf("unexpected token %v", token)
}
