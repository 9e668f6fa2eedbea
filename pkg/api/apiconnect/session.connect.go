package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splitty/pkg/api"
)

// SessionServiceName is the fully-qualified name of the SessionService service.
const SessionServiceName = "splitty.v1.SessionService"

const (
	SessionServiceCreateSessionProcedure  = "/splitty.v1.SessionService/CreateSession"
	SessionServiceAnalyzeReceiptProcedure = "/splitty.v1.SessionService/AnalyzeReceipt"
	SessionServiceResetSessionProcedure   = "/splitty.v1.SessionService/ResetSession"
	SessionServiceGetSplitProcedure       = "/splitty.v1.SessionService/GetSplit"
	SessionServiceAddPersonProcedure      = "/splitty.v1.SessionService/AddPerson"
	SessionServiceRemovePersonProcedure   = "/splitty.v1.SessionService/RemovePerson"
	SessionServiceAssignPersonProcedure   = "/splitty.v1.SessionService/AssignPerson"
	SessionServiceUnassignPersonProcedure = "/splitty.v1.SessionService/UnassignPerson"
	SessionServiceAddItemProcedure        = "/splitty.v1.SessionService/AddItem"
	SessionServiceEditItemProcedure       = "/splitty.v1.SessionService/EditItem"
	SessionServiceDeleteItemProcedure     = "/splitty.v1.SessionService/DeleteItem"
	SessionServiceSettleUpProcedure       = "/splitty.v1.SessionService/SettleUp"
	SessionServiceSaveBillProcedure       = "/splitty.v1.SessionService/SaveBill"
	SessionServiceResumeBillProcedure     = "/splitty.v1.SessionService/ResumeBill"
)

// SessionServiceHandler is implemented by the server.
type SessionServiceHandler interface {
	CreateSession(context.Context, *connect.Request[api.CreateSessionRequest]) (*connect.Response[api.CreateSessionResponse], error)
	AnalyzeReceipt(context.Context, *connect.Request[api.AnalyzeReceiptRequest]) (*connect.Response[api.SessionResponse], error)
	ResetSession(context.Context, *connect.Request[api.ResetSessionRequest]) (*connect.Response[api.ResetSessionResponse], error)
	GetSplit(context.Context, *connect.Request[api.GetSplitRequest]) (*connect.Response[api.SplitResponse], error)
	AddPerson(context.Context, *connect.Request[api.AddPersonRequest]) (*connect.Response[api.SplitResponse], error)
	RemovePerson(context.Context, *connect.Request[api.RemovePersonRequest]) (*connect.Response[api.SplitResponse], error)
	AssignPerson(context.Context, *connect.Request[api.AssignPersonRequest]) (*connect.Response[api.SplitResponse], error)
	UnassignPerson(context.Context, *connect.Request[api.UnassignPersonRequest]) (*connect.Response[api.SplitResponse], error)
	AddItem(context.Context, *connect.Request[api.AddItemRequest]) (*connect.Response[api.ItemResponse], error)
	EditItem(context.Context, *connect.Request[api.EditItemRequest]) (*connect.Response[api.ItemResponse], error)
	DeleteItem(context.Context, *connect.Request[api.DeleteItemRequest]) (*connect.Response[api.SplitResponse], error)
	SettleUp(context.Context, *connect.Request[api.SettleUpRequest]) (*connect.Response[api.SettleUpResponse], error)
	SaveBill(context.Context, *connect.Request[api.SaveBillRequest]) (*connect.Response[api.SaveBillResponse], error)
	ResumeBill(context.Context, *connect.Request[api.ResumeBillRequest]) (*connect.Response[api.SessionResponse], error)
}

// SessionServiceClient is a client for splitty.v1.SessionService.
type SessionServiceClient interface {
	CreateSession(context.Context, *connect.Request[api.CreateSessionRequest]) (*connect.Response[api.CreateSessionResponse], error)
	AnalyzeReceipt(context.Context, *connect.Request[api.AnalyzeReceiptRequest]) (*connect.Response[api.SessionResponse], error)
	ResetSession(context.Context, *connect.Request[api.ResetSessionRequest]) (*connect.Response[api.ResetSessionResponse], error)
	GetSplit(context.Context, *connect.Request[api.GetSplitRequest]) (*connect.Response[api.SplitResponse], error)
	AddPerson(context.Context, *connect.Request[api.AddPersonRequest]) (*connect.Response[api.SplitResponse], error)
	RemovePerson(context.Context, *connect.Request[api.RemovePersonRequest]) (*connect.Response[api.SplitResponse], error)
	AssignPerson(context.Context, *connect.Request[api.AssignPersonRequest]) (*connect.Response[api.SplitResponse], error)
	UnassignPerson(context.Context, *connect.Request[api.UnassignPersonRequest]) (*connect.Response[api.SplitResponse], error)
	AddItem(context.Context, *connect.Request[api.AddItemRequest]) (*connect.Response[api.ItemResponse], error)
	EditItem(context.Context, *connect.Request[api.EditItemRequest]) (*connect.Response[api.ItemResponse], error)
	DeleteItem(context.Context, *connect.Request[api.DeleteItemRequest]) (*connect.Response[api.SplitResponse], error)
	SettleUp(context.Context, *connect.Request[api.SettleUpRequest]) (*connect.Response[api.SettleUpResponse], error)
	SaveBill(context.Context, *connect.Request[api.SaveBillRequest]) (*connect.Response[api.SaveBillResponse], error)
	ResumeBill(context.Context, *connect.Request[api.ResumeBillRequest]) (*connect.Response[api.SessionResponse], error)
}

// NewSessionServiceHandler builds an HTTP handler from the service implementation.
func NewSessionServiceHandler(svc SessionServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = withHandlerCodec(opts)
	createSession := connect.NewUnaryHandler(SessionServiceCreateSessionProcedure, svc.CreateSession, opts...)
	analyzeReceipt := connect.NewUnaryHandler(SessionServiceAnalyzeReceiptProcedure, svc.AnalyzeReceipt, opts...)
	resetSession := connect.NewUnaryHandler(SessionServiceResetSessionProcedure, svc.ResetSession, opts...)
	getSplit := connect.NewUnaryHandler(SessionServiceGetSplitProcedure, svc.GetSplit, opts...)
	addPerson := connect.NewUnaryHandler(SessionServiceAddPersonProcedure, svc.AddPerson, opts...)
	removePerson := connect.NewUnaryHandler(SessionServiceRemovePersonProcedure, svc.RemovePerson, opts...)
	assignPerson := connect.NewUnaryHandler(SessionServiceAssignPersonProcedure, svc.AssignPerson, opts...)
	unassignPerson := connect.NewUnaryHandler(SessionServiceUnassignPersonProcedure, svc.UnassignPerson, opts...)
	addItem := connect.NewUnaryHandler(SessionServiceAddItemProcedure, svc.AddItem, opts...)
	editItem := connect.NewUnaryHandler(SessionServiceEditItemProcedure, svc.EditItem, opts...)
	deleteItem := connect.NewUnaryHandler(SessionServiceDeleteItemProcedure, svc.DeleteItem, opts...)
	settleUp := connect.NewUnaryHandler(SessionServiceSettleUpProcedure, svc.SettleUp, opts...)
	saveBill := connect.NewUnaryHandler(SessionServiceSaveBillProcedure, svc.SaveBill, opts...)
	resumeBill := connect.NewUnaryHandler(SessionServiceResumeBillProcedure, svc.ResumeBill, opts...)

	return "/" + SessionServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case SessionServiceCreateSessionProcedure:
			createSession.ServeHTTP(w, r)
		case SessionServiceAnalyzeReceiptProcedure:
			analyzeReceipt.ServeHTTP(w, r)
		case SessionServiceResetSessionProcedure:
			resetSession.ServeHTTP(w, r)
		case SessionServiceGetSplitProcedure:
			getSplit.ServeHTTP(w, r)
		case SessionServiceAddPersonProcedure:
			addPerson.ServeHTTP(w, r)
		case SessionServiceRemovePersonProcedure:
			removePerson.ServeHTTP(w, r)
		case SessionServiceAssignPersonProcedure:
			assignPerson.ServeHTTP(w, r)
		case SessionServiceUnassignPersonProcedure:
			unassignPerson.ServeHTTP(w, r)
		case SessionServiceAddItemProcedure:
			addItem.ServeHTTP(w, r)
		case SessionServiceEditItemProcedure:
			editItem.ServeHTTP(w, r)
		case SessionServiceDeleteItemProcedure:
			deleteItem.ServeHTTP(w, r)
		case SessionServiceSettleUpProcedure:
			settleUp.ServeHTTP(w, r)
		case SessionServiceSaveBillProcedure:
			saveBill.ServeHTTP(w, r)
		case SessionServiceResumeBillProcedure:
			resumeBill.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// NewSessionServiceClient constructs a client for splitty.v1.SessionService.
func NewSessionServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) SessionServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = withClientCodec(opts)
	return &sessionServiceClient{
		createSession:  connect.NewClient[api.CreateSessionRequest, api.CreateSessionResponse](httpClient, baseURL+SessionServiceCreateSessionProcedure, opts...),
		analyzeReceipt: connect.NewClient[api.AnalyzeReceiptRequest, api.SessionResponse](httpClient, baseURL+SessionServiceAnalyzeReceiptProcedure, opts...),
		resetSession:   connect.NewClient[api.ResetSessionRequest, api.ResetSessionResponse](httpClient, baseURL+SessionServiceResetSessionProcedure, opts...),
		getSplit:       connect.NewClient[api.GetSplitRequest, api.SplitResponse](httpClient, baseURL+SessionServiceGetSplitProcedure, opts...),
		addPerson:      connect.NewClient[api.AddPersonRequest, api.SplitResponse](httpClient, baseURL+SessionServiceAddPersonProcedure, opts...),
		removePerson:   connect.NewClient[api.RemovePersonRequest, api.SplitResponse](httpClient, baseURL+SessionServiceRemovePersonProcedure, opts...),
		assignPerson:   connect.NewClient[api.AssignPersonRequest, api.SplitResponse](httpClient, baseURL+SessionServiceAssignPersonProcedure, opts...),
		unassignPerson: connect.NewClient[api.UnassignPersonRequest, api.SplitResponse](httpClient, baseURL+SessionServiceUnassignPersonProcedure, opts...),
		addItem:        connect.NewClient[api.AddItemRequest, api.ItemResponse](httpClient, baseURL+SessionServiceAddItemProcedure, opts...),
		editItem:       connect.NewClient[api.EditItemRequest, api.ItemResponse](httpClient, baseURL+SessionServiceEditItemProcedure, opts...),
		deleteItem:     connect.NewClient[api.DeleteItemRequest, api.SplitResponse](httpClient, baseURL+SessionServiceDeleteItemProcedure, opts...),
		settleUp:       connect.NewClient[api.SettleUpRequest, api.SettleUpResponse](httpClient, baseURL+SessionServiceSettleUpProcedure, opts...),
		saveBill:       connect.NewClient[api.SaveBillRequest, api.SaveBillResponse](httpClient, baseURL+SessionServiceSaveBillProcedure, opts...),
		resumeBill:     connect.NewClient[api.ResumeBillRequest, api.SessionResponse](httpClient, baseURL+SessionServiceResumeBillProcedure, opts...),
	}
}

type sessionServiceClient struct {
	createSession  *connect.Client[api.CreateSessionRequest, api.CreateSessionResponse]
	analyzeReceipt *connect.Client[api.AnalyzeReceiptRequest, api.SessionResponse]
	resetSession   *connect.Client[api.ResetSessionRequest, api.ResetSessionResponse]
	getSplit       *connect.Client[api.GetSplitRequest, api.SplitResponse]
	addPerson      *connect.Client[api.AddPersonRequest, api.SplitResponse]
	removePerson   *connect.Client[api.RemovePersonRequest, api.SplitResponse]
	assignPerson   *connect.Client[api.AssignPersonRequest, api.SplitResponse]
	unassignPerson *connect.Client[api.UnassignPersonRequest, api.SplitResponse]
	addItem        *connect.Client[api.AddItemRequest, api.ItemResponse]
	editItem       *connect.Client[api.EditItemRequest, api.ItemResponse]
	deleteItem     *connect.Client[api.DeleteItemRequest, api.SplitResponse]
	settleUp       *connect.Client[api.SettleUpRequest, api.SettleUpResponse]
	saveBill       *connect.Client[api.SaveBillRequest, api.SaveBillResponse]
	resumeBill     *connect.Client[api.ResumeBillRequest, api.SessionResponse]
}

func (c *sessionServiceClient) CreateSession(ctx context.Context, req *connect.Request[api.CreateSessionRequest]) (*connect.Response[api.CreateSessionResponse], error) {
	return c.createSession.CallUnary(ctx, req)
}

func (c *sessionServiceClient) AnalyzeReceipt(ctx context.Context, req *connect.Request[api.AnalyzeReceiptRequest]) (*connect.Response[api.SessionResponse], error) {
	return c.analyzeReceipt.CallUnary(ctx, req)
}

func (c *sessionServiceClient) ResetSession(ctx context.Context, req *connect.Request[api.ResetSessionRequest]) (*connect.Response[api.ResetSessionResponse], error) {
	return c.resetSession.CallUnary(ctx, req)
}

func (c *sessionServiceClient) GetSplit(ctx context.Context, req *connect.Request[api.GetSplitRequest]) (*connect.Response[api.SplitResponse], error) {
	return c.getSplit.CallUnary(ctx, req)
}

func (c *sessionServiceClient) AddPerson(ctx context.Context, req *connect.Request[api.AddPersonRequest]) (*connect.Response[api.SplitResponse], error) {
	return c.addPerson.CallUnary(ctx, req)
}

func (c *sessionServiceClient) RemovePerson(ctx context.Context, req *connect.Request[api.RemovePersonRequest]) (*connect.Response[api.SplitResponse], error) {
	return c.removePerson.CallUnary(ctx, req)
}

func (c *sessionServiceClient) AssignPerson(ctx context.Context, req *connect.Request[api.AssignPersonRequest]) (*connect.Response[api.SplitResponse], error) {
	return c.assignPerson.CallUnary(ctx, req)
}

func (c *sessionServiceClient) UnassignPerson(ctx context.Context, req *connect.Request[api.UnassignPersonRequest]) (*connect.Response[api.SplitResponse], error) {
	return c.unassignPerson.CallUnary(ctx, req)
}

func (c *sessionServiceClient) AddItem(ctx context.Context, req *connect.Request[api.AddItemRequest]) (*connect.Response[api.ItemResponse], error) {
	return c.addItem.CallUnary(ctx, req)
}

func (c *sessionServiceClient) EditItem(ctx context.Context, req *connect.Request[api.EditItemRequest]) (*connect.Response[api.ItemResponse], error) {
	return c.editItem.CallUnary(ctx, req)
}

func (c *sessionServiceClient) DeleteItem(ctx context.Context, req *connect.Request[api.DeleteItemRequest]) (*connect.Response[api.SplitResponse], error) {
	return c.deleteItem.CallUnary(ctx, req)
}

func (c *sessionServiceClient) SettleUp(ctx context.Context, req *connect.Request[api.SettleUpRequest]) (*connect.Response[api.SettleUpResponse], error) {
	return c.settleUp.CallUnary(ctx, req)
}

func (c *sessionServiceClient) SaveBill(ctx context.Context, req *connect.Request[api.SaveBillRequest]) (*connect.Response[api.SaveBillResponse], error) {
	return c.saveBill.CallUnary(ctx, req)
}

func (c *sessionServiceClient) ResumeBill(ctx context.Context, req *connect.Request[api.ResumeBillRequest]) (*connect.Response[api.SessionResponse], error) {
	return c.resumeBill.CallUnary(ctx, req)
}
