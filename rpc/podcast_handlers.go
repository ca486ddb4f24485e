package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"podledger/core"
	"podledger/core/types"
	"podledger/native/podcast"
)

type createPodcastParams struct {
	Creator     string `json:"creator"`
	Title       string `json:"title"`
	Description string `json:"description"`
	MediaURI    string `json:"mediaUri"`
	PricePerDay string `json:"pricePerDay"`
}

type deactivatePodcastParams struct {
	Caller    string `json:"caller"`
	PodcastID uint64 `json:"podcastId"`
}

type subscribeParams struct {
	Subscriber string `json:"subscriber"`
	PodcastID  uint64 `json:"podcastId"`
	Duration   int64  `json:"duration"`
	Payment    string `json:"payment"`
}

type addressParams struct {
	Address string `json:"address"`
}

type podcastIDParams struct {
	PodcastID uint64 `json:"podcastId"`
}

type subscriptionParams struct {
	PodcastID  uint64 `json:"podcastId"`
	Subscriber string `json:"subscriber"`
}

type setFeeRateParams struct {
	Caller string `json:"caller"`
	FeeBps uint32 `json:"feeBps"`
}

type fundParams struct {
	Caller string `json:"caller"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

type podcastResult struct {
	ID               uint64 `json:"id"`
	Creator          string `json:"creator"`
	Title            string `json:"title"`
	Description      string `json:"description"`
	MediaURI         string `json:"mediaUri"`
	PricePerDay      string `json:"pricePerDay"`
	CreatedAt        int64  `json:"createdAt"`
	Active           bool   `json:"active"`
	TotalSales       string `json:"totalSales"`
	SubscriberEpochs uint64 `json:"subscriberEpochs"`
}

type subscriptionResult struct {
	PodcastID  uint64 `json:"podcastId"`
	Subscriber string `json:"subscriber"`
	ExpiresAt  int64  `json:"expiresAt"`
	Active     bool   `json:"active"`
	StartedAt  int64  `json:"startedAt"`
	RenewedAt  int64  `json:"renewedAt"`
	Renewals   uint64 `json:"renewals"`
}

type receiptResult struct {
	PodcastID     uint64 `json:"podcastId"`
	Subscriber    string `json:"subscriber"`
	Duration      int64  `json:"duration"`
	Cost          string `json:"cost"`
	Fee           string `json:"fee"`
	CreatorPayout string `json:"creatorPayout"`
	Change        string `json:"change"`
	ExpiresAt     int64  `json:"expiresAt"`
}

type balanceResult struct {
	Creator        string `json:"creator"`
	Pending        string `json:"pending"`
	TotalEarned    string `json:"totalEarned"`
	LastWithdrawal int64  `json:"lastWithdrawal"`
}

type withdrawResult struct {
	Address string `json:"address"`
	Amount  string `json:"amount"`
}

type accountResult struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
	Nonce   uint64 `json:"nonce"`
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func podcastResultFrom(pod *podcast.Podcast) *podcastResult {
	if pod == nil {
		return nil
	}
	return &podcastResult{
		ID:               pod.ID,
		Creator:          types.FormatAddress(pod.Creator),
		Title:            pod.Title,
		Description:      pod.Description,
		MediaURI:         pod.MediaURI,
		PricePerDay:      bigString(pod.PricePerDay),
		CreatedAt:        pod.CreatedAt,
		Active:           pod.Active,
		TotalSales:       bigString(pod.TotalSales),
		SubscriberEpochs: pod.SubscriberEpochs,
	}
}

func subscriptionResultFrom(sub *podcast.Subscription) *subscriptionResult {
	if sub == nil {
		return nil
	}
	return &subscriptionResult{
		PodcastID:  sub.PodcastID,
		Subscriber: types.FormatAddress(sub.Subscriber),
		ExpiresAt:  sub.ExpiresAt,
		Active:     sub.Active,
		StartedAt:  sub.StartedAt,
		RenewedAt:  sub.RenewedAt,
		Renewals:   sub.Renewals,
	}
}

func decodeParams(req *RPCRequest, out interface{}) error {
	if len(req.Params) != 1 {
		return fmt.Errorf("expected exactly one params object")
	}
	return json.Unmarshal(req.Params[0], out)
}

func decodeAddress(raw string) ([20]byte, error) {
	return types.ParseAddress(raw)
}

func parseAmount(raw string) (*big.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("amount required")
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid decimal amount %q", raw)
	}
	return amount, nil
}

// errorCode maps an operation failure to its wire code.
func errorCode(err error) int {
	switch {
	case errors.Is(err, podcast.ErrInvalidInput):
		return codeInvalidParams
	case errors.Is(err, podcast.ErrNotFound):
		return codeNotFound
	case errors.Is(err, podcast.ErrUnauthorized):
		return codeForbidden
	case errors.Is(err, podcast.ErrInactive):
		return codeInactive
	case errors.Is(err, podcast.ErrNotSubscribable):
		return codeNotSubscribable
	case errors.Is(err, podcast.ErrInsufficientPayment):
		return codeInsufficientPayment
	case errors.Is(err, podcast.ErrNothingToWithdraw):
		return codeNothingToWithdraw
	case errors.Is(err, core.ErrInsufficientFunds):
		return codeInsufficientFunds
	default:
		return codeServerError
	}
}

func errorStatus(code int) int {
	switch code {
	case codeInvalidParams:
		return http.StatusBadRequest
	case codeNotFound:
		return http.StatusNotFound
	case codeForbidden:
		return http.StatusForbidden
	case codeServerError:
		return http.StatusInternalServerError
	default:
		return http.StatusUnprocessableEntity
	}
}

func writeOperationError(w http.ResponseWriter, id interface{}, err error) {
	code := errorCode(err)
	writeError(w, errorStatus(code), id, code, err.Error(), nil)
}

func (s *Server) handleCreatePodcast(w http.ResponseWriter, req *RPCRequest) {
	var params createPodcastParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return
	}
	creator, err := decodeAddress(params.Creator)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid creator address", err.Error())
		return
	}
	price, err := parseAmount(params.PricePerDay)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid pricePerDay", err.Error())
		return
	}
	pod, err := s.node.CreatePodcast(creator, params.Title, params.Description, params.MediaURI, price)
	if err != nil {
		writeOperationError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, podcastResultFrom(pod))
}

func (s *Server) handleDeactivatePodcast(w http.ResponseWriter, req *RPCRequest) {
	var params deactivatePodcastParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return
	}
	caller, err := decodeAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	pod, err := s.node.DeactivatePodcast(caller, params.PodcastID)
	if err != nil {
		writeOperationError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, podcastResultFrom(pod))
}

func (s *Server) handleSubscribe(w http.ResponseWriter, req *RPCRequest) {
	var params subscribeParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return
	}
	subscriber, err := decodeAddress(params.Subscriber)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid subscriber address", err.Error())
		return
	}
	payment, err := parseAmount(params.Payment)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid payment", err.Error())
		return
	}
	receipt, err := s.node.Subscribe(subscriber, params.PodcastID, params.Duration, payment)
	if err != nil {
		writeOperationError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, &receiptResult{
		PodcastID:     receipt.PodcastID,
		Subscriber:    types.FormatAddress(receipt.Subscriber),
		Duration:      receipt.Duration,
		Cost:          bigString(receipt.Cost),
		Fee:           bigString(receipt.Fee),
		CreatorPayout: bigString(receipt.CreatorPayout),
		Change:        bigString(receipt.Change),
		ExpiresAt:     receipt.ExpiresAt,
	})
}

func (s *Server) handleWithdraw(w http.ResponseWriter, req *RPCRequest) {
	var params addressParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return
	}
	caller, err := decodeAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid address", err.Error())
		return
	}
	amount, err := s.node.Withdraw(caller)
	if err != nil {
		writeOperationError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, &withdrawResult{Address: types.FormatAddress(caller), Amount: bigString(amount)})
}

func (s *Server) handleSetFeeRate(w http.ResponseWriter, req *RPCRequest) {
	var params setFeeRateParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return
	}
	caller, err := decodeAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	if err := s.node.SetFeeRate(caller, params.FeeBps); err != nil {
		writeOperationError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]uint32{"feeBps": params.FeeBps})
}

func (s *Server) handleWithdrawPlatformFees(w http.ResponseWriter, req *RPCRequest) {
	var params addressParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return
	}
	caller, err := decodeAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid address", err.Error())
		return
	}
	amount, err := s.node.WithdrawPlatformFees(caller)
	if err != nil {
		writeOperationError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, &withdrawResult{Address: types.FormatAddress(caller), Amount: bigString(amount)})
}

func (s *Server) handleFundAccount(w http.ResponseWriter, req *RPCRequest) {
	var params fundParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return
	}
	caller, err := decodeAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	to, err := decodeAddress(params.To)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid recipient address", err.Error())
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid amount", err.Error())
		return
	}
	if err := s.node.FundAccount(caller, to, amount); err != nil {
		writeOperationError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"to": types.FormatAddress(to), "amount": bigString(amount)})
}

func (s *Server) handleGetPodcast(w http.ResponseWriter, req *RPCRequest) {
	var params podcastIDParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return
	}
	pod, err := s.node.Podcast(params.PodcastID)
	if err != nil {
		writeOperationError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, podcastResultFrom(pod))
}

func (s *Server) handleListByCreator(w http.ResponseWriter, req *RPCRequest) {
	var params addressParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return
	}
	creator, err := decodeAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid address", err.Error())
		return
	}
	ids, err := s.node.PodcastsByCreator(creator)
	if err != nil {
		writeOperationError(w, req.ID, err)
		return
	}
	if ids == nil {
		ids = []uint64{}
	}
	writeResult(w, req.ID, ids)
}

func (s *Server) handleGetSubscription(w http.ResponseWriter, req *RPCRequest) {
	var params subscriptionParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return
	}
	subscriber, err := decodeAddress(params.Subscriber)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid subscriber address", err.Error())
		return
	}
	sub, err := s.node.Subscription(params.PodcastID, subscriber)
	if err != nil {
		writeOperationError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, subscriptionResultFrom(sub))
}

func (s *Server) handleHasAccess(w http.ResponseWriter, req *RPCRequest) {
	var params subscriptionParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return
	}
	subscriber, err := decodeAddress(params.Subscriber)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid subscriber address", err.Error())
		return
	}
	active, err := s.node.HasActiveAccess(params.PodcastID, subscriber)
	if err != nil {
		writeOperationError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"hasAccess": active})
}

func (s *Server) handleGetBalance(w http.ResponseWriter, req *RPCRequest) {
	var params addressParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return
	}
	creator, err := decodeAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid address", err.Error())
		return
	}
	balance, err := s.node.Balance(creator)
	if err != nil {
		writeOperationError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, &balanceResult{
		Creator:        types.FormatAddress(balance.Creator),
		Pending:        bigString(balance.Pending),
		TotalEarned:    bigString(balance.TotalEarned),
		LastWithdrawal: balance.LastWithdrawal,
	})
}

func (s *Server) handleGetFeeRate(w http.ResponseWriter, req *RPCRequest) {
	rate, err := s.node.FeeRate()
	if err != nil {
		writeOperationError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]uint32{"feeBps": rate})
}

func (s *Server) handleGetPlatformPool(w http.ResponseWriter, req *RPCRequest) {
	pool, err := s.node.PlatformPool()
	if err != nil {
		writeOperationError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"platformPool": bigString(pool)})
}

func (s *Server) handleGetAccount(w http.ResponseWriter, req *RPCRequest) {
	var params addressParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return
	}
	addr, err := decodeAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid address", err.Error())
		return
	}
	acc, err := s.node.Account(addr)
	if err != nil {
		writeOperationError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, &accountResult{
		Address: types.FormatAddress(addr),
		Balance: bigString(acc.Balance),
		Nonce:   acc.Nonce,
	})
}
