package draft

import (
	"context"
	"encoding/json"
	"net/http"

	"connectrpc.com/connect"
)

const (
	// DraftServiceName is the fully-qualified name of the DraftService service.
	DraftServiceName = "draft.v1.DraftService"

	DraftServiceStartDraftProcedure    = "/draft.v1.DraftService/StartDraft"
	DraftServiceMakePickProcedure      = "/draft.v1.DraftService/MakePick"
	DraftServiceGetDraftStateProcedure = "/draft.v1.DraftService/GetDraftState"
)

// jsonCodec carries plain Go structs as connect messages. Registered under
// "json" it replaces the protojson codec, so requests use application/json.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// DraftServiceHandler is implemented by Service
type DraftServiceHandler interface {
	StartDraft(context.Context, *connect.Request[StartDraftRequest]) (*connect.Response[StartDraftResponse], error)
	MakePick(context.Context, *connect.Request[MakePickRequest]) (*connect.Response[MakePickResponse], error)
	GetDraftState(context.Context, *connect.Request[GetDraftStateRequest]) (*connect.Response[GetDraftStateResponse], error)
}

// NewDraftServiceHandler builds an HTTP handler from the service implementation. It
// returns the path on which to mount the handler and the handler itself.
func NewDraftServiceHandler(svc DraftServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	startDraftHandler := connect.NewUnaryHandler(DraftServiceStartDraftProcedure, svc.StartDraft, opts...)
	makePickHandler := connect.NewUnaryHandler(DraftServiceMakePickProcedure, svc.MakePick, opts...)
	getDraftStateHandler := connect.NewUnaryHandler(
		DraftServiceGetDraftStateProcedure,
		svc.GetDraftState,
		append(opts, connect.WithIdempotency(connect.IdempotencyNoSideEffects))...,
	)

	return "/" + DraftServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case DraftServiceStartDraftProcedure:
			startDraftHandler.ServeHTTP(w, r)
		case DraftServiceMakePickProcedure:
			makePickHandler.ServeHTTP(w, r)
		case DraftServiceGetDraftStateProcedure:
			getDraftStateHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// DraftServiceClient calls a DraftService over connect with the JSON codec
type DraftServiceClient struct {
	startDraft    *connect.Client[StartDraftRequest, StartDraftResponse]
	makePick      *connect.Client[MakePickRequest, MakePickResponse]
	getDraftState *connect.Client[GetDraftStateRequest, GetDraftStateResponse]
}

func NewDraftServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *DraftServiceClient {
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
	return &DraftServiceClient{
		startDraft:    connect.NewClient[StartDraftRequest, StartDraftResponse](httpClient, baseURL+DraftServiceStartDraftProcedure, opts...),
		makePick:      connect.NewClient[MakePickRequest, MakePickResponse](httpClient, baseURL+DraftServiceMakePickProcedure, opts...),
		getDraftState: connect.NewClient[GetDraftStateRequest, GetDraftStateResponse](httpClient, baseURL+DraftServiceGetDraftStateProcedure, opts...),
	}
}

func (c *DraftServiceClient) StartDraft(ctx context.Context, req *connect.Request[StartDraftRequest]) (*connect.Response[StartDraftResponse], error) {
	return c.startDraft.CallUnary(ctx, req)
}

func (c *DraftServiceClient) MakePick(ctx context.Context, req *connect.Request[MakePickRequest]) (*connect.Response[MakePickResponse], error) {
	return c.makePick.CallUnary(ctx, req)
}

func (c *DraftServiceClient) GetDraftState(ctx context.Context, req *connect.Request[GetDraftStateRequest]) (*connect.Response[GetDraftStateResponse], error) {
	return c.getDraftState.CallUnary(ctx, req)
}
