package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splitty/pkg/api"
)

// HistoryServiceName is the fully-qualified name of the HistoryService service.
const HistoryServiceName = "splitty.v1.HistoryService"

const (
	HistoryServiceListBillsProcedure  = "/splitty.v1.HistoryService/ListBills"
	HistoryServiceGetBillProcedure    = "/splitty.v1.HistoryService/GetBill"
	HistoryServiceDeleteBillProcedure = "/splitty.v1.HistoryService/DeleteBill"
)

type HistoryServiceHandler interface {
	ListBills(context.Context, *connect.Request[api.ListBillsRequest]) (*connect.Response[api.ListBillsResponse], error)
	GetBill(context.Context, *connect.Request[api.GetBillRequest]) (*connect.Response[api.GetBillResponse], error)
	DeleteBill(context.Context, *connect.Request[api.DeleteBillRequest]) (*connect.Response[api.DeleteBillResponse], error)
}

type HistoryServiceClient interface {
	ListBills(context.Context, *connect.Request[api.ListBillsRequest]) (*connect.Response[api.ListBillsResponse], error)
	GetBill(context.Context, *connect.Request[api.GetBillRequest]) (*connect.Response[api.GetBillResponse], error)
	DeleteBill(context.Context, *connect.Request[api.DeleteBillRequest]) (*connect.Response[api.DeleteBillResponse], error)
}

func NewHistoryServiceHandler(svc HistoryServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = withHandlerCodec(opts)
	listBills := connect.NewUnaryHandler(HistoryServiceListBillsProcedure, svc.ListBills, opts...)
	getBill := connect.NewUnaryHandler(HistoryServiceGetBillProcedure, svc.GetBill, opts...)
	deleteBill := connect.NewUnaryHandler(HistoryServiceDeleteBillProcedure, svc.DeleteBill, opts...)

	return "/" + HistoryServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case HistoryServiceListBillsProcedure:
			listBills.ServeHTTP(w, r)
		case HistoryServiceGetBillProcedure:
			getBill.ServeHTTP(w, r)
		case HistoryServiceDeleteBillProcedure:
			deleteBill.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

func NewHistoryServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) HistoryServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = withClientCodec(opts)
	return &historyServiceClient{
		listBills:  connect.NewClient[api.ListBillsRequest, api.ListBillsResponse](httpClient, baseURL+HistoryServiceListBillsProcedure, opts...),
		getBill:    connect.NewClient[api.GetBillRequest, api.GetBillResponse](httpClient, baseURL+HistoryServiceGetBillProcedure, opts...),
		deleteBill: connect.NewClient[api.DeleteBillRequest, api.DeleteBillResponse](httpClient, baseURL+HistoryServiceDeleteBillProcedure, opts...),
	}
}

type historyServiceClient struct {
	listBills  *connect.Client[api.ListBillsRequest, api.ListBillsResponse]
	getBill    *connect.Client[api.GetBillRequest, api.GetBillResponse]
	deleteBill *connect.Client[api.DeleteBillRequest, api.DeleteBillResponse]
}

func (c *historyServiceClient) ListBills(ctx context.Context, req *connect.Request[api.ListBillsRequest]) (*connect.Response[api.ListBillsResponse], error) {
	return c.listBills.CallUnary(ctx, req)
}

func (c *historyServiceClient) GetBill(ctx context.Context, req *connect.Request[api.GetBillRequest]) (*connect.Response[api.GetBillResponse], error) {
	return c.getBill.CallUnary(ctx, req)
}

func (c *historyServiceClient) DeleteBill(ctx context.Context, req *connect.Request[api.DeleteBillRequest]) (*connect.Response[api.DeleteBillResponse], error) {
	return c.deleteBill.CallUnary(ctx, req)
}
