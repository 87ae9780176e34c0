package rpc

import (
	"encoding/base64"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ledgerdb/ledger-go-sdk/internal/xerrors"
	"github.com/ledgerdb/ledger-go-sdk/transport"
)

// Method is the single RPC which carries every session command.
const Method = "/ledger.session.v1.Session/SendCommand"

var errNoCommand = xerrors.New("request has no command")

// Command names of the envelope.
const (
	CommandStartSession      = "startSession"
	CommandStartTransaction  = "startTransaction"
	CommandExecuteStatement  = "executeStatement"
	CommandFetchPage         = "fetchPage"
	CommandCommitTransaction = "commitTransaction"
	CommandAbortTransaction  = "abortTransaction"
	CommandEndSession        = "endSession"
)

// NewRequest builds the envelope of command. Byte slices in body are sent as
// std base64 strings.
func NewRequest(sessionToken, command string, body map[string]any) (*structpb.Struct, error) {
	if body == nil {
		body = map[string]any{}
	}
	fields := map[string]any{
		command: body,
	}
	if sessionToken != "" {
		fields["sessionToken"] = sessionToken
	}

	req, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, xerrors.WithStackTrace(fmt.Errorf("build %s request: %w", command, err))
	}

	return req, nil
}

// Command returns the name and the body of the command carried by req.
func Command(req *structpb.Struct) (name string, body *structpb.Struct, sessionToken string, _ error) {
	for k, v := range req.GetFields() {
		if k == "sessionToken" {
			sessionToken = v.GetStringValue()

			continue
		}
		if s := v.GetStructValue(); s != nil {
			name, body = k, s
		}
	}
	if name == "" {
		return "", nil, "", xerrors.WithStackTrace(errNoCommand)
	}

	return name, body, sessionToken, nil
}

func EncodeBytes(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

func DecodeBytes(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, xerrors.WithStackTrace(err)
	}

	return b, nil
}

func EncodeBytesList(values [][]byte) []any {
	list := make([]any, len(values))
	for i, v := range values {
		list[i] = EncodeBytes(v)
	}

	return list
}

func DecodeBytesList(list *structpb.ListValue) ([][]byte, error) {
	values := make([][]byte, 0, len(list.GetValues()))
	for i, v := range list.GetValues() {
		b, err := DecodeBytes(v.GetStringValue())
		if err != nil {
			return nil, xerrors.WithStackTrace(fmt.Errorf("value #%d: %w", i, err))
		}
		values = append(values, b)
	}

	return values, nil
}

// EncodePage is the result body shape of executeStatement and fetchPage.
func EncodePage(page *transport.Page) map[string]any {
	body := map[string]any{
		"page": map[string]any{
			"values":        EncodeBytesList(page.Values),
			"nextPageToken": page.NextPageToken,
		},
	}
	if io := page.ConsumedIOs; io != nil {
		body["consumedIOs"] = map[string]any{
			"readIOs":  io.ReadIOs,
			"writeIOs": io.WriteIOs,
		}
	}
	if t := page.TimingInformation; t != nil {
		body["timingInformation"] = map[string]any{
			"processingTimeMilliseconds": t.ProcessingTimeMilliseconds,
		}
	}

	return body
}

func DecodePage(body *structpb.Struct) (*transport.Page, error) {
	fields := body.GetFields()
	page := fields["page"].GetStructValue().GetFields()

	values, err := DecodeBytesList(page["values"].GetListValue())
	if err != nil {
		return nil, xerrors.WithStackTrace(err)
	}
	p := &transport.Page{
		Values:        values,
		NextPageToken: page["nextPageToken"].GetStringValue(),
	}
	if io := fields["consumedIOs"].GetStructValue(); io != nil {
		p.ConsumedIOs = &transport.IOUsage{
			ReadIOs:  int64(io.GetFields()["readIOs"].GetNumberValue()),
			WriteIOs: int64(io.GetFields()["writeIOs"].GetNumberValue()),
		}
	}
	if t := fields["timingInformation"].GetStructValue(); t != nil {
		p.TimingInformation = &transport.TimingInformation{
			ProcessingTimeMilliseconds: int64(t.GetFields()["processingTimeMilliseconds"].GetNumberValue()),
		}
	}

	return p, nil
}
