package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"podledger/core"
	"podledger/core/state"
	"podledger/core/types"
	"podledger/storage"
)

const testToken = "test-rpc-token"

func addr(last byte) [20]byte {
	var out [20]byte
	out[19] = last
	return out
}

var (
	rpcOwner = addr(0xEE)
	rpcVault = addr(0xAA)
)

func newTestServer(t *testing.T) (*Server, *core.Node) {
	t.Helper()
	t.Setenv("PODLEDGER_RPC_TOKEN", testToken)
	node := core.NewNode(state.NewManager(storage.NewMemDB()), core.NodeConfig{
		Owner:         rpcOwner,
		Vault:         rpcVault,
		DefaultFeeBps: 250,
	})
	node.SetNowFunc(func() int64 { return 1_000 })
	return NewServer(node), node
}

func call(t *testing.T, server *Server, token string, method string, params interface{}) (*RPCResponse, int) {
	t.Helper()
	payload := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
	}
	if params != nil {
		payload["params"] = []interface{}{params}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	resp := &RPCResponse{}
	if err := json.Unmarshal(rec.Body.Bytes(), resp); err != nil {
		t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
	}
	return resp, rec.Code
}

func decodeResult(t *testing.T, resp *RPCResponse, out interface{}) {
	t.Helper()
	raw, err := json.Marshal(resp.Result)
	if err != nil {
		t.Fatalf("re-marshal result: %v", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		t.Fatalf("decode result: %v", err)
	}
}

func TestMethodNotFound(t *testing.T) {
	server, _ := newTestServer(t)
	resp, status := call(t, server, "", "podcast_unknown", nil)
	if status != http.StatusNotFound {
		t.Fatalf("status %d, want 404", status)
	}
	if resp.Error == nil || resp.Error.Code != codeMethodNotFound {
		t.Fatalf("unexpected error payload: %+v", resp.Error)
	}
}

func TestMutatingMethodsRequireAuth(t *testing.T) {
	server, _ := newTestServer(t)
	params := createPodcastParams{
		Creator:     types.FormatAddress(addr(0x01)),
		Title:       "Signal & Noise",
		MediaURI:    "ipfs://feed",
		PricePerDay: "50",
	}

	resp, status := call(t, server, "", "podcast_create", params)
	if status != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", status)
	}
	if resp.Error == nil || resp.Error.Code != codeUnauthorized {
		t.Fatalf("unexpected error payload: %+v", resp.Error)
	}

	resp, status = call(t, server, "wrong-token", "podcast_create", params)
	if status != http.StatusUnauthorized || resp.Error == nil || resp.Error.Code != codeUnauthorized {
		t.Fatalf("bad token accepted: status %d error %+v", status, resp.Error)
	}
}

func TestCreateAndFetchPodcast(t *testing.T) {
	server, _ := newTestServer(t)
	creator := types.FormatAddress(addr(0x01))

	resp, status := call(t, server, testToken, "podcast_create", createPodcastParams{
		Creator:     creator,
		Title:       "Signal & Noise",
		Description: "weekly deep dives",
		MediaURI:    "ipfs://feed",
		PricePerDay: "50",
	})
	if status != http.StatusOK || resp.Error != nil {
		t.Fatalf("create failed: status %d error %+v", status, resp.Error)
	}
	var created podcastResult
	decodeResult(t, resp, &created)
	if created.ID != 0 || !created.Active || created.PricePerDay != "50" {
		t.Fatalf("unexpected created podcast: %+v", created)
	}

	resp, status = call(t, server, "", "podcast_get", podcastIDParams{PodcastID: 0})
	if status != http.StatusOK || resp.Error != nil {
		t.Fatalf("get failed: status %d error %+v", status, resp.Error)
	}
	var fetched podcastResult
	decodeResult(t, resp, &fetched)
	if fetched.Title != "Signal & Noise" || fetched.Creator != creator {
		t.Fatalf("unexpected fetched podcast: %+v", fetched)
	}

	resp, status = call(t, server, "", "podcast_get", podcastIDParams{PodcastID: 9})
	if status != http.StatusNotFound || resp.Error == nil || resp.Error.Code != codeNotFound {
		t.Fatalf("missing podcast not mapped: status %d error %+v", status, resp.Error)
	}
}

func TestSubscribeFlowOverRPC(t *testing.T) {
	server, _ := newTestServer(t)
	creator := types.FormatAddress(addr(0x01))
	fan := types.FormatAddress(addr(0x02))

	resp, _ := call(t, server, testToken, "podcast_create", createPodcastParams{
		Creator: creator, Title: "Signal & Noise", MediaURI: "ipfs://feed", PricePerDay: "50",
	})
	if resp.Error != nil {
		t.Fatalf("create failed: %+v", resp.Error)
	}

	// Unfunded subscriber is turned away before the sale.
	resp, status := call(t, server, testToken, "podcast_subscribe", subscribeParams{
		Subscriber: fan, PodcastID: 0, Duration: 86_400, Payment: "50",
	})
	if status != http.StatusUnprocessableEntity || resp.Error == nil || resp.Error.Code != codeInsufficientFunds {
		t.Fatalf("unfunded subscribe not mapped: status %d error %+v", status, resp.Error)
	}

	resp, _ = call(t, server, testToken, "podcast_fund", fundParams{
		Caller: types.FormatAddress(rpcOwner), To: fan, Amount: "1000",
	})
	if resp.Error != nil {
		t.Fatalf("fund failed: %+v", resp.Error)
	}

	resp, status = call(t, server, testToken, "podcast_subscribe", subscribeParams{
		Subscriber: fan, PodcastID: 0, Duration: 86_400, Payment: "60",
	})
	if status != http.StatusOK || resp.Error != nil {
		t.Fatalf("subscribe failed: status %d error %+v", status, resp.Error)
	}
	var receipt receiptResult
	decodeResult(t, resp, &receipt)
	if receipt.Cost != "50" || receipt.Change != "10" || receipt.ExpiresAt != 1_000+86_400 {
		t.Fatalf("unexpected receipt: %+v", receipt)
	}

	resp, _ = call(t, server, "", "podcast_hasAccess", subscriptionParams{PodcastID: 0, Subscriber: fan})
	if resp.Error != nil {
		t.Fatalf("hasAccess failed: %+v", resp.Error)
	}
	var access map[string]bool
	decodeResult(t, resp, &access)
	if !access["hasAccess"] {
		t.Fatalf("expected access after purchase")
	}

	resp, _ = call(t, server, "", "podcast_balance", addressParams{Address: creator})
	if resp.Error != nil {
		t.Fatalf("balance failed: %+v", resp.Error)
	}
	var balance balanceResult
	decodeResult(t, resp, &balance)
	// 250 bps of 50 floors to 1, leaving 49 for the creator.
	if balance.Pending != "49" {
		t.Fatalf("pending %s, want 49", balance.Pending)
	}

	resp, _ = call(t, server, testToken, "podcast_withdraw", addressParams{Address: creator})
	if resp.Error != nil {
		t.Fatalf("withdraw failed: %+v", resp.Error)
	}
	var paid withdrawResult
	decodeResult(t, resp, &paid)
	if paid.Amount != "49" {
		t.Fatalf("withdrew %s, want 49", paid.Amount)
	}

	resp, status = call(t, server, testToken, "podcast_withdraw", addressParams{Address: creator})
	if status != http.StatusUnprocessableEntity || resp.Error == nil || resp.Error.Code != codeNothingToWithdraw {
		t.Fatalf("empty withdraw not mapped: status %d error %+v", status, resp.Error)
	}
}

func TestFeeRateAdministrationOverRPC(t *testing.T) {
	server, _ := newTestServer(t)
	owner := types.FormatAddress(rpcOwner)

	resp, _ := call(t, server, "", "podcast_feeRate", nil)
	if resp.Error != nil {
		t.Fatalf("feeRate failed: %+v", resp.Error)
	}
	var rate map[string]uint32
	decodeResult(t, resp, &rate)
	if rate["feeBps"] != 250 {
		t.Fatalf("default fee %d, want 250", rate["feeBps"])
	}

	resp, status := call(t, server, testToken, "podcast_setFeeRate", setFeeRateParams{
		Caller: types.FormatAddress(addr(0x05)), FeeBps: 100,
	})
	if status != http.StatusForbidden || resp.Error == nil || resp.Error.Code != codeForbidden {
		t.Fatalf("non-owner setFeeRate not mapped: status %d error %+v", status, resp.Error)
	}

	resp, _ = call(t, server, testToken, "podcast_setFeeRate", setFeeRateParams{Caller: owner, FeeBps: 100})
	if resp.Error != nil {
		t.Fatalf("setFeeRate failed: %+v", resp.Error)
	}

	resp, _ = call(t, server, "", "podcast_feeRate", nil)
	decodeResult(t, resp, &rate)
	if rate["feeBps"] != 100 {
		t.Fatalf("fee after update %d, want 100", rate["feeBps"])
	}
}

func TestInvalidAddressRejected(t *testing.T) {
	server, _ := newTestServer(t)
	for _, bad := range []string{"", "1234", "0x12", fmt.Sprintf("0x%041x", 0)} {
		resp, status := call(t, server, "", "podcast_balance", addressParams{Address: bad})
		if status != http.StatusBadRequest || resp.Error == nil || resp.Error.Code != codeInvalidParams {
			t.Fatalf("address %q accepted: status %d error %+v", bad, status, resp.Error)
		}
	}
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	server, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status %d", rec.Code)
	}
}
