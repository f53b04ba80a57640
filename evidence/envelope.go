package evidence

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"
)

// ErrUnknownKind is returned when an envelope names no known kind.
var ErrUnknownKind = errors.New("evidence: unknown kind")

const envelopeTypeField = "type"

// MarshalRequest encodes r as a JSON object with its kind in "type".
func MarshalRequest(r Request) ([]byte, error) {
	return marshalEnvelope(r.Kind(), r)
}

// MarshalResponse encodes r as a JSON object with its kind in "type".
func MarshalResponse(r Response) ([]byte, error) {
	return marshalEnvelope(r.Kind(), r)
}

func marshalEnvelope(kind Kind, v interface{}) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", kind, err)
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", kind, err)
	}
	fields[envelopeTypeField], _ = json.Marshal(kind)
	return json.Marshal(fields)
}

func UnmarshalRequest(data []byte) (Request, error) {
	kind, fields, err := parseEnvelope(data)
	if err != nil {
		return nil, err
	}
	switch kind {
	case KindMessage:
		return decodeRequest[MessageRequest](fields)
	case KindQuestionString:
		return decodeRequest[QuestionStringRequest](fields)
	case KindQuestionMultipleChoice:
		return decodeRequest[QuestionMultipleChoiceRequest](fields)
	case KindIcaoPassiveAuthentication:
		return decodeRequest[IcaoPassiveAuthenticationRequest](fields)
	case KindIcaoNfcTunnel:
		return decodeRequest[IcaoNfcTunnelRequest](fields)
	}
	return nil, fmt.Errorf("%w: request %q", ErrUnknownKind, kind)
}

func UnmarshalResponse(data []byte) (Response, error) {
	kind, fields, err := parseEnvelope(data)
	if err != nil {
		return nil, err
	}
	switch kind {
	case KindMessage:
		return decodeResponse[MessageResponse](fields)
	case KindQuestionString:
		return decodeResponse[QuestionStringResponse](fields)
	case KindQuestionMultipleChoice:
		return decodeResponse[QuestionMultipleChoiceResponse](fields)
	case KindIcaoPassiveAuthentication:
		return decodeResponse[IcaoPassiveAuthenticationResponse](fields)
	case KindIcaoNfcTunnel:
		return decodeResponse[IcaoNfcTunnelResponse](fields)
	case KindIcaoNfcTunnelResult:
		return decodeResponse[IcaoNfcTunnelResultResponse](fields)
	}
	return nil, fmt.Errorf("%w: response %q", ErrUnknownKind, kind)
}

func parseEnvelope(data []byte) (Kind, map[string]interface{}, error) {
	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return "", nil, fmt.Errorf("failed to parse evidence: %w", err)
	}
	kind, _ := fields[envelopeTypeField].(string)
	delete(fields, envelopeTypeField)
	return Kind(kind), fields, nil
}

func decodeRequest[T Request](fields map[string]interface{}) (Request, error) {
	var v T
	if err := decodeFields(fields, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func decodeResponse[T Response](fields map[string]interface{}) (Response, error) {
	var v T
	if err := decodeFields(fields, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// decodeFields fills out from generic JSON. Byte slices travel as standard
// base64 and data group numbers as object keys.
func decodeFields(fields map[string]interface{}, out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       base64ToBytes,
		WeaklyTypedInput: true,
		TagName:          "json",
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(fields); err != nil {
		return fmt.Errorf("failed to decode %T: %w", out, err)
	}
	return nil
}

var bytesType = reflect.TypeOf([]byte(nil))

func base64ToBytes(from, to reflect.Type, data interface{}) (interface{}, error) {
	if from.Kind() != reflect.String || to != bytesType {
		return data, nil
	}
	return base64.StdEncoding.DecodeString(data.(string))
}
