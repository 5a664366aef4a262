// Package accountdelivery manages delivery layer of accounts.
package accountdelivery

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/go-petr/money-transfer/internal/domain"
	"github.com/go-petr/money-transfer/pkg/errorspkg"
	"github.com/go-petr/money-transfer/pkg/web"
)

// Service provides service layer interface needed by account delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package accountdelivery
type Service interface {
	List(ctx context.Context) ([]domain.Account, error)
	Get(ctx context.Context, id int64) (domain.Account, error)
	CreateNew(ctx context.Context) (domain.Account, error)
	TopUp(ctx context.Context, id int64, amount decimal.Decimal) (domain.Account, error)
	Withdraw(ctx context.Context, id int64, amount decimal.Decimal) (domain.Account, error)
	Transfer(ctx context.Context, from, to int64, amount decimal.Decimal) (domain.TransferResult, error)
}

// Handler facilitates account delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns account handler.
func NewHandler(s Service) Handler {
	return Handler{service: s}
}

type data struct {
	Account domain.Account `json:"account"`
}
type response struct {
	Data data `json:"data,omitempty"`
}

type dataAccounts struct {
	Accounts []domain.Account `json:"accounts"`
}
type responseAccounts struct {
	Data dataAccounts `json:"data,omitempty"`
}

type dataTransfer struct {
	Transfer domain.TransferResult `json:"transfer"`
}
type responseTransfer struct {
	Data dataTransfer `json:"data,omitempty"`
}

// List handles http request to list all accounts.
func (h *Handler) List(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	accounts, err := h.service.List(ctx)
	if err != nil {
		abortWithError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, responseAccounts{Data: dataAccounts{accounts}})
}

type getRequest struct {
	ID int64 `uri:"id" binding:"required,min=1"`
}

// Get handles http request to get one account.
func (h *Handler) Get(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req getRequest
	if !bindURI(gctx, &req) {
		return
	}

	account, err := h.service.Get(ctx, req.ID)
	if err != nil {
		abortWithError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, response{Data: data{account}})
}

// Create handles http request to create a new account with zero balance.
func (h *Handler) Create(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	account, err := h.service.CreateNew(ctx)
	if err != nil {
		abortWithError(gctx, err)
		return
	}

	gctx.JSON(http.StatusCreated, response{Data: data{account}})
}

type amountRequest struct {
	Amount string `json:"amount" binding:"required"`
}

// TopUp handles http request to add money to an account.
func (h *Handler) TopUp(gctx *gin.Context) {
	h.changeBalance(gctx, h.service.TopUp)
}

// Withdraw handles http request to take money from an account.
func (h *Handler) Withdraw(gctx *gin.Context) {
	h.changeBalance(gctx, h.service.Withdraw)
}

func (h *Handler) changeBalance(gctx *gin.Context, op func(context.Context, int64, decimal.Decimal) (domain.Account, error)) {
	ctx := gctx.Request.Context()

	var uri getRequest
	if !bindURI(gctx, &uri) {
		return
	}

	var req amountRequest
	if !bindJSON(gctx, &req) {
		return
	}

	amount, ok := bindAmount(gctx, req.Amount)
	if !ok {
		return
	}

	account, err := op(ctx, uri.ID, amount)
	if err != nil {
		abortWithError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, response{Data: data{account}})
}

type transferRequest struct {
	From   int64  `json:"from" binding:"required,min=1"`
	To     int64  `json:"to" binding:"required,min=1"`
	Amount string `json:"amount" binding:"required"`
}

// Transfer handles http request to move money between two accounts.
func (h *Handler) Transfer(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req transferRequest
	if !bindJSON(gctx, &req) {
		return
	}

	amount, ok := bindAmount(gctx, req.Amount)
	if !ok {
		return
	}

	result, err := h.service.Transfer(ctx, req.From, req.To, amount)
	if err != nil {
		abortWithError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, responseTransfer{Data: dataTransfer{result}})
}

func bindJSON(gctx *gin.Context, req any) bool {
	if err := gctx.ShouldBindJSON(req); err != nil {
		abortWithBindingError(gctx, err)
		return false
	}

	return true
}

func bindURI(gctx *gin.Context, req any) bool {
	if err := gctx.ShouldBindUri(req); err != nil {
		abortWithBindingError(gctx, err)
		return false
	}

	return true
}

func bindAmount(gctx *gin.Context, raw string) (decimal.Decimal, bool) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		zerolog.Ctx(gctx).Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: "Amount is invalid"})

		return decimal.Decimal{}, false
	}

	return amount, true
}

func abortWithBindingError(gctx *gin.Context, err error) {
	var (
		ve     validator.ValidationErrors
		errMsg string
	)

	if errors.As(err, &ve) {
		field := ve[0]
		errMsg = field.Field() + web.GetErrorMsg(field)
	}

	zerolog.Ctx(gctx).Info().Err(err).Send()
	gctx.JSON(http.StatusBadRequest, web.Response{Error: errMsg})
}

// abortWithError maps service errors onto http statuses. Accounting
// rejections keep their exact business message even when a storage layer
// wrapped them; everything else is reported as an internal failure.
func abortWithError(gctx *gin.Context, err error) {
	if acc := errorspkg.Accounting(err); acc != nil {
		gctx.JSON(accountingStatus(acc), web.Error(acc))
		return
	}

	zerolog.Ctx(gctx).Error().Err(err).Send()
	gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))
}

func accountingStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidAmount):
		return http.StatusBadRequest
	default:
		// insufficient funds and same account transfer
		return http.StatusConflict
	}
}
