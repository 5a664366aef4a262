package accountdelivery

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/go-petr/money-transfer/internal/domain"
	"github.com/go-petr/money-transfer/pkg/errorspkg"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newTestRouter(service Service) *gin.Engine {
	handler := NewHandler(service)

	engine := gin.New()
	engine.GET("/accounts", handler.List)
	engine.POST("/accounts", handler.Create)
	engine.GET("/accounts/:id", handler.Get)
	engine.POST("/accounts/:id/topup", handler.TopUp)
	engine.POST("/accounts/:id/withdraw", handler.Withdraw)
	engine.PUT("/transfers", handler.Transfer)

	return engine
}

func decodeError(t *testing.T, body *bytes.Buffer) string {
	t.Helper()

	var res struct {
		Error string `json:"error"`
	}

	require.NoError(t, json.Unmarshal(body.Bytes(), &res))

	return res.Error
}

func TestListHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	service := NewMockService(ctrl)
	service.EXPECT().List(gomock.Any()).Times(1).Return([]domain.Account{
		{ID: 1, Balance: decimal.NewFromInt(700)},
		{ID: 2, Balance: decimal.NewFromInt(200)},
	}, nil)

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/accounts", nil)
	newTestRouter(service).ServeHTTP(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)

	var res struct {
		Data struct {
			Accounts []domain.Account `json:"accounts"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &res))
	require.Len(t, res.Data.Accounts, 2)
}

func TestGetHandler(t *testing.T) {
	account := domain.Account{ID: 7, Balance: decimal.NewFromInt(900)}

	testCases := []struct {
		name           string
		url            string
		buildStubs     func(service *MockService)
		wantStatusCode int
		wantError      string
	}{
		{
			name: "OK",
			url:  "/accounts/7",
			buildStubs: func(service *MockService) {
				service.EXPECT().Get(gomock.Any(), gomock.Eq(int64(7))).Times(1).Return(account, nil)
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "NotFound",
			url:  "/accounts/42",
			buildStubs: func(service *MockService) {
				service.EXPECT().Get(gomock.Any(), gomock.Eq(int64(42))).Times(1).
					Return(domain.Account{}, domain.AccountNotFoundError(42))
			},
			wantStatusCode: http.StatusNotFound,
			wantError:      `Account id "42" does not exist`,
		},
		{
			name: "InvalidID",
			url:  "/accounts/0",
			buildStubs: func(service *MockService) {
				service.EXPECT().Get(gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "StorageFailure",
			url:  "/accounts/7",
			buildStubs: func(service *MockService) {
				service.EXPECT().Get(gomock.Any(), gomock.Any()).Times(1).
					Return(domain.Account{}, errorspkg.Storage(errors.New("boom")))
			},
			wantStatusCode: http.StatusInternalServerError,
			wantError:      errorspkg.ErrInternal.Error(),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			service := NewMockService(ctrl)
			tc.buildStubs(service)

			recorder := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tc.url, nil)
			newTestRouter(service).ServeHTTP(recorder, req)

			require.Equal(t, tc.wantStatusCode, recorder.Code)
			if tc.wantError != "" {
				require.Equal(t, tc.wantError, decodeError(t, recorder.Body))
			}
		})
	}
}

func TestCreateHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	service := NewMockService(ctrl)
	service.EXPECT().CreateNew(gomock.Any()).Times(1).
		Return(domain.Account{ID: 1, Balance: decimal.Zero}, nil)

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/accounts", nil)
	newTestRouter(service).ServeHTTP(recorder, req)

	require.Equal(t, http.StatusCreated, recorder.Code)

	var res struct {
		Data struct {
			Account domain.Account `json:"account"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &res))
	require.Equal(t, int64(1), res.Data.Account.ID)
	require.True(t, res.Data.Account.Balance.IsZero())
}

func TestTopUpHandler(t *testing.T) {
	testCases := []struct {
		name           string
		url            string
		body           string
		buildStubs     func(service *MockService)
		wantStatusCode int
		wantError      string
	}{
		{
			name: "OK",
			url:  "/accounts/3/topup",
			body: `{"amount":"100"}`,
			buildStubs: func(service *MockService) {
				service.EXPECT().
					TopUp(gomock.Any(), gomock.Eq(int64(3)), gomock.Eq(decimal.NewFromInt(100))).
					Times(1).
					Return(domain.Account{ID: 3, Balance: decimal.NewFromInt(1100)}, nil)
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "MalformedAmount",
			url:  "/accounts/3/topup",
			body: `{"amount":"!@#"}`,
			buildStubs: func(service *MockService) {
				service.EXPECT().TopUp(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "Amount is invalid",
		},
		{
			name: "MissingAmount",
			url:  "/accounts/3/topup",
			body: `{}`,
			buildStubs: func(service *MockService) {
				service.EXPECT().TopUp(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "NegativeAmount",
			url:  "/accounts/3/topup",
			body: `{"amount":"-100"}`,
			buildStubs: func(service *MockService) {
				service.EXPECT().
					TopUp(gomock.Any(), gomock.Eq(int64(3)), gomock.Eq(decimal.NewFromInt(-100))).
					Times(1).
					Return(domain.Account{}, domain.InvalidAmountError(decimal.NewFromInt(-100)))
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "Amount must be positive, but given -100",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			service := NewMockService(ctrl)
			tc.buildStubs(service)

			recorder := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, tc.url, bytes.NewBufferString(tc.body))
			newTestRouter(service).ServeHTTP(recorder, req)

			require.Equal(t, tc.wantStatusCode, recorder.Code)
			if tc.wantError != "" {
				require.Equal(t, tc.wantError, decodeError(t, recorder.Body))
			}
		})
	}
}

func TestWithdrawHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	service := NewMockService(ctrl)
	service.EXPECT().
		Withdraw(gomock.Any(), gomock.Eq(int64(2)), gomock.Eq(decimal.NewFromInt(201))).
		Times(1).
		Return(domain.Account{}, domain.CannotWithdrawError(decimal.NewFromInt(201)))

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/accounts/2/withdraw", bytes.NewBufferString(`{"amount":"201"}`))
	newTestRouter(service).ServeHTTP(recorder, req)

	require.Equal(t, http.StatusConflict, recorder.Code)
	require.Equal(t, "Cannot withdraw 201. Not enough money", decodeError(t, recorder.Body))
}

func TestTransferHandler(t *testing.T) {
	amount := decimal.NewFromInt(200)

	testCases := []struct {
		name           string
		body           string
		buildStubs     func(service *MockService)
		wantStatusCode int
		wantError      string
	}{
		{
			name: "OK",
			body: `{"from":1,"to":2,"amount":"200"}`,
			buildStubs: func(service *MockService) {
				service.EXPECT().
					Transfer(gomock.Any(), gomock.Eq(int64(1)), gomock.Eq(int64(2)), gomock.Eq(amount)).
					Times(1).
					Return(domain.TransferResult{
						Source: domain.Account{ID: 1, Balance: decimal.NewFromInt(500)},
						Target: domain.Account{ID: 2, Balance: decimal.NewFromInt(400)},
					}, nil)
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "SameAccount",
			body: `{"from":1,"to":1,"amount":"200"}`,
			buildStubs: func(service *MockService) {
				service.EXPECT().
					Transfer(gomock.Any(), gomock.Eq(int64(1)), gomock.Eq(int64(1)), gomock.Eq(amount)).
					Times(1).
					Return(domain.TransferResult{}, domain.ErrSameAccountTransfer)
			},
			wantStatusCode: http.StatusConflict,
			wantError:      "Source and destination accounts must be different",
		},
		{
			name: "SourceNotFound",
			body: `{"from":33,"to":2,"amount":"200"}`,
			buildStubs: func(service *MockService) {
				service.EXPECT().
					Transfer(gomock.Any(), gomock.Eq(int64(33)), gomock.Eq(int64(2)), gomock.Eq(amount)).
					Times(1).
					Return(domain.TransferResult{}, domain.AccountNotFoundError(33))
			},
			wantStatusCode: http.StatusNotFound,
			wantError:      `Account id "33" does not exist`,
		},
		{
			name: "InsufficientFunds",
			body: `{"from":1,"to":2,"amount":"1000"}`,
			buildStubs: func(service *MockService) {
				service.EXPECT().
					Transfer(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Times(1).
					Return(domain.TransferResult{}, domain.CannotTransferError(decimal.NewFromInt(1000)))
			},
			wantStatusCode: http.StatusConflict,
			wantError:      "Cannot transfer 1000. Not enough money",
		},
		{
			name: "MissingBody",
			body: `{}`,
			buildStubs: func(service *MockService) {
				service.EXPECT().Transfer(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "StorageWrappedRejection",
			body: `{"from":1,"to":2,"amount":"1000"}`,
			buildStubs: func(service *MockService) {
				// A lower layer wrapped the business rejection into a storage
				// failure; the business message must still win.
				rejection := domain.CannotTransferError(decimal.NewFromInt(1000))
				wrapped := errorspkg.Wrap(errorspkg.ErrStorage, "storage failure: "+rejection.Error(), rejection)

				service.EXPECT().
					Transfer(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Times(1).
					Return(domain.TransferResult{}, wrapped)
			},
			wantStatusCode: http.StatusConflict,
			wantError:      "Cannot transfer 1000. Not enough money",
		},
		{
			name: "StorageFailure",
			body: `{"from":1,"to":2,"amount":"200"}`,
			buildStubs: func(service *MockService) {
				service.EXPECT().
					Transfer(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Times(1).
					Return(domain.TransferResult{}, errorspkg.Storage(errors.New("boom")))
			},
			wantStatusCode: http.StatusInternalServerError,
			wantError:      errorspkg.ErrInternal.Error(),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			service := NewMockService(ctrl)
			tc.buildStubs(service)

			recorder := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPut, "/transfers", bytes.NewBufferString(tc.body))
			newTestRouter(service).ServeHTTP(recorder, req)

			require.Equal(t, tc.wantStatusCode, recorder.Code)
			if tc.wantError != "" {
				require.Equal(t, tc.wantError, decodeError(t, recorder.Body))
			}
		})
	}
}
