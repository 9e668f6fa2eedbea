package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/splitty/internal/assignment"
	"github.com/mmynk/splitty/internal/auth"
	"github.com/mmynk/splitty/internal/calculator"
	"github.com/mmynk/splitty/internal/middleware"
	"github.com/mmynk/splitty/internal/models"
	"github.com/mmynk/splitty/internal/recognizer"
	"github.com/mmynk/splitty/internal/session"
	"github.com/mmynk/splitty/internal/storage"
	"github.com/mmynk/splitty/pkg/api"
)

// maxImageSize bounds AnalyzeReceipt uploads.
const maxImageSize = 20 << 20

// SessionService implements the Connect SessionService: one live split per
// session, recomputed after every change.
type SessionService struct {
	sessions   *session.Manager
	recognizer recognizer.Recognizer
	bills      storage.BillStore
}

// NewSessionService creates a SessionService.
func NewSessionService(sessions *session.Manager, rec recognizer.Recognizer, bills storage.BillStore) *SessionService {
	return &SessionService{
		sessions:   sessions,
		recognizer: rec,
		bills:      bills,
	}
}

// session resolves the caller's session.
func (s *SessionService) session(ctx context.Context, id string) (*session.Session, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	if id == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, session.ErrSessionNotFound)
	}
	sess, err := s.sessions.Get(userID, id)
	if err != nil {
		return nil, toConnectError(err)
	}
	return sess, nil
}

// splitResponse builds the common mutation response from the session's
// current state and a freshly computed result.
func splitResponse(sess *session.Session, result *calculator.Result) *api.SplitResponse {
	resp := &api.SplitResponse{
		People: sess.People(),
		Split:  toAPISplit(result),
	}
	if _, state, err := sess.Snapshot(); err == nil {
		resp.Items = toAPIItems(state.Items)
	} else {
		resp.Items = []api.LineItem{}
	}
	return resp
}

func (s *SessionService) sessionResponse(sess *session.Session, result *calculator.Result) *api.SessionResponse {
	resp := &api.SessionResponse{
		SessionID: sess.ID,
		Token:     sess.Token(),
		BillID:    sess.BillID(),
		People:    sess.People(),
		Split:     toAPISplit(result),
	}
	if receipt, _, err := sess.Snapshot(); err == nil {
		resp.Receipt = toAPIReceipt(&receipt)
	}
	return resp
}

// CreateSession starts an empty split owned by the caller.
func (s *SessionService) CreateSession(ctx context.Context, req *connect.Request[api.CreateSessionRequest]) (*connect.Response[api.CreateSessionResponse], error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}

	sess := s.sessions.Create(userID)
	slog.Info("Session created", "session_id", sess.ID, "user_id", userID)
	return connect.NewResponse(&api.CreateSessionResponse{SessionID: sess.ID}), nil
}

// AnalyzeReceipt sends the photo to the recognizer and loads the result.
// The caller's bearer token is forwarded to the analysis service.
func (s *SessionService) AnalyzeReceipt(ctx context.Context, req *connect.Request[api.AnalyzeReceiptRequest]) (*connect.Response[api.SessionResponse], error) {
	sess, err := s.session(ctx, req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	if len(req.Msg.Image) > maxImageSize {
		return nil, connect.NewError(connect.CodeInvalidArgument, recognizer.ErrUnsupportedImage)
	}

	start := time.Now()
	result, err := sess.Analyze(ctx, s.recognizer, middleware.GetToken(ctx), req.Msg.Image)
	if err != nil {
		slog.Warn("AnalyzeReceipt failed", "session_id", sess.ID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Receipt loaded",
		"session_id", sess.ID,
		"items", len(result.Items),
		"grand_total", result.GrandTotal,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return connect.NewResponse(s.sessionResponse(sess, result)), nil
}

// ResetSession clears the session. An analysis still in flight will be discarded.
func (s *SessionService) ResetSession(ctx context.Context, req *connect.Request[api.ResetSessionRequest]) (*connect.Response[api.ResetSessionResponse], error) {
	sess, err := s.session(ctx, req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	sess.Reset()
	return connect.NewResponse(&api.ResetSessionResponse{Token: sess.Token()}), nil
}

// GetSplit returns the current state. Before a receipt is loaded the split is empty.
func (s *SessionService) GetSplit(ctx context.Context, req *connect.Request[api.GetSplitRequest]) (*connect.Response[api.SplitResponse], error) {
	sess, err := s.session(ctx, req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	result, err := sess.Split()
	if err != nil && !errors.Is(err, session.ErrNoReceipt) {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(splitResponse(sess, result)), nil
}

func (s *SessionService) AddPerson(ctx context.Context, req *connect.Request[api.AddPersonRequest]) (*connect.Response[api.SplitResponse], error) {
	sess, err := s.session(ctx, req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	result, err := sess.AddPerson(req.Msg.Name)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(splitResponse(sess, result)), nil
}

func (s *SessionService) RemovePerson(ctx context.Context, req *connect.Request[api.RemovePersonRequest]) (*connect.Response[api.SplitResponse], error) {
	sess, err := s.session(ctx, req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	result, err := sess.RemovePerson(req.Msg.Name)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(splitResponse(sess, result)), nil
}

func (s *SessionService) AssignPerson(ctx context.Context, req *connect.Request[api.AssignPersonRequest]) (*connect.Response[api.SplitResponse], error) {
	sess, err := s.session(ctx, req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	result, err := sess.AssignPerson(req.Msg.ItemKey, req.Msg.Name)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(splitResponse(sess, result)), nil
}

func (s *SessionService) UnassignPerson(ctx context.Context, req *connect.Request[api.UnassignPersonRequest]) (*connect.Response[api.SplitResponse], error) {
	sess, err := s.session(ctx, req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	result, err := sess.UnassignPerson(req.Msg.ItemKey, req.Msg.Name)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(splitResponse(sess, result)), nil
}

// AddItem appends an item the recognizer missed.
func (s *SessionService) AddItem(ctx context.Context, req *connect.Request[api.AddItemRequest]) (*connect.Response[api.ItemResponse], error) {
	sess, err := s.session(ctx, req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	added, result, err := sess.AddItem(models.LineItem{
		Key:          req.Msg.Key,
		Name:         req.Msg.Name,
		Quantity:     req.Msg.Quantity,
		PricePerUnit: req.Msg.PricePerUnit,
		TotalPrice:   req.Msg.TotalPrice,
	})
	if err != nil {
		return nil, toConnectError(err)
	}

	item := toAPIItem(added)
	return connect.NewResponse(&api.ItemResponse{Item: &item, State: splitResponse(sess, result)}), nil
}

// EditItem corrects a misread item. Quantity or unit price changes
// recompute the item total.
func (s *SessionService) EditItem(ctx context.Context, req *connect.Request[api.EditItemRequest]) (*connect.Response[api.ItemResponse], error) {
	sess, err := s.session(ctx, req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	edited, result, err := sess.EditItem(req.Msg.ItemKey, assignment.ItemPatch{
		Name:         req.Msg.Name,
		Quantity:     req.Msg.Quantity,
		PricePerUnit: req.Msg.PricePerUnit,
		TotalPrice:   req.Msg.TotalPrice,
	})
	if err != nil {
		return nil, toConnectError(err)
	}

	item := toAPIItem(edited)
	return connect.NewResponse(&api.ItemResponse{Item: &item, State: splitResponse(sess, result)}), nil
}

func (s *SessionService) DeleteItem(ctx context.Context, req *connect.Request[api.DeleteItemRequest]) (*connect.Response[api.SplitResponse], error) {
	sess, err := s.session(ctx, req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	result, err := sess.DeleteItem(req.Msg.ItemKey)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(splitResponse(sess, result)), nil
}

// SettleUp lists who pays the payer how much.
func (s *SessionService) SettleUp(ctx context.Context, req *connect.Request[api.SettleUpRequest]) (*connect.Response[api.SettleUpResponse], error) {
	sess, err := s.session(ctx, req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	result, transfers, err := sess.SettleUp(req.Msg.Payer)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.SettleUpResponse{
		Transfers: toAPITransfers(transfers, result.Currency),
		Split:     toAPISplit(result),
	}), nil
}

// SaveBill stores the receipt and split state in the caller's history.
func (s *SessionService) SaveBill(ctx context.Context, req *connect.Request[api.SaveBillRequest]) (*connect.Response[api.SaveBillResponse], error) {
	sess, err := s.session(ctx, req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	receipt, state, err := sess.Snapshot()
	if err != nil {
		return nil, toConnectError(err)
	}

	bill := &models.SavedBill{
		OwnerID:    sess.OwnerID,
		Title:      req.Msg.Title,
		Receipt:    receipt,
		SplitState: state,
	}
	if err := s.bills.CreateBill(ctx, bill); err != nil {
		slog.Error("Failed to save bill", "session_id", sess.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	sess.SetBillID(bill.ID)

	slog.Info("Bill saved", "bill_id", bill.ID, "session_id", sess.ID, "title", bill.Title)
	return connect.NewResponse(&api.SaveBillResponse{BillID: bill.ID, Timestamp: bill.Timestamp}), nil
}

// ResumeBill opens a new session from a saved bill.
func (s *SessionService) ResumeBill(ctx context.Context, req *connect.Request[api.ResumeBillRequest]) (*connect.Response[api.SessionResponse], error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}

	bill, err := s.bills.GetBill(ctx, req.Msg.BillID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if bill.OwnerID != userID {
		// Hide other users' bills.
		return nil, connect.NewError(connect.CodeNotFound, storage.ErrBillNotFound)
	}

	sess, result, err := s.sessions.Resume(userID, bill)
	if err != nil {
		return nil, toConnectError(err)
	}

	slog.Info("Bill resumed", "bill_id", bill.ID, "session_id", sess.ID)
	return connect.NewResponse(s.sessionResponse(sess, result)), nil
}
