package handler

import (
	"context"
	"log/slog"
	"math/big"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"custody/internal/ledger/models"
	"custody/pkg/domain"
	dErrors "custody/pkg/domain-errors"
	"custody/pkg/platform/audit"
	"custody/pkg/platform/httputil"
	"custody/pkg/requestcontext"
)

// Service defines the ledger operations exposed over HTTP.
type Service interface {
	AddAdmin(ctx context.Context, principal domain.Address) error
	RemoveAdmin(ctx context.Context, principal domain.Address) error
	AdminStatus(ctx context.Context, principal domain.Address) (bool, error)
	ListAdmins(ctx context.Context) ([]domain.Address, error)

	ChangeWaitedTS(ctx context.Context, waitedTS uint64) error
	ChangeVestingRegistry(ctx context.Context, registry domain.Address) error
	Settings(ctx context.Context) (models.Settings, error)

	DepositVested(ctx context.Context, beneficiary domain.Address, deposit models.VestedDeposit) error
	DepositWaitedUnlocked(ctx context.Context, beneficiary domain.Address, deposit models.WaitedUnlockedDeposit) error
	WithdrawWaitedUnlockedBalance(ctx context.Context, receiver domain.Address) (domain.Address, *big.Int, error)

	CreateVesting(ctx context.Context) (domain.Address, error)
	CreateVestingAndStake(ctx context.Context) (domain.Address, *big.Int, error)

	Account(ctx context.Context, owner domain.Address) (*models.Account, error)
	AuditTrail(ctx context.Context, principal domain.Address) ([]audit.Event, error)
	RecentAudit(ctx context.Context, limit int) ([]audit.Event, error)
}

// Handler wires ledger endpoints to the ledger service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a ledger handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts ledger endpoints on the router. The router is expected to
// authenticate the caller.
func (h *Handler) Register(r chi.Router) {
	r.Get("/admins", h.HandleListAdmins)
	r.Post("/admins", h.HandleAddAdmin)
	r.Get("/admins/{principal}", h.HandleAdminStatus)
	r.Delete("/admins/{principal}", h.HandleRemoveAdmin)

	r.Get("/config", h.HandleGetSettings)
	r.Put("/config/waited-ts", h.HandleChangeWaitedTS)
	r.Put("/config/vesting-registry", h.HandleChangeVestingRegistry)

	r.Post("/deposits/vested", h.HandleDepositVested)
	r.Post("/deposits/waited-unlocked", h.HandleDepositWaitedUnlocked)
	r.Post("/withdrawals/waited-unlocked", h.HandleWithdrawWaitedUnlocked)

	r.Post("/vesting", h.HandleCreateVesting)
	r.Post("/vesting/stake", h.HandleCreateVestingAndStake)

	r.Get("/accounts/{address}", h.HandleGetAccount)
	r.Get("/audit", h.HandleRecentAudit)
	r.Get("/audit/{address}", h.HandleAuditTrail)
}

// HandleAddAdmin handles POST /admins.
func (h *Handler) HandleAddAdmin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[AddAdminRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.AddAdmin(ctx, req.parsedPrincipal); err != nil {
		h.fail(ctx, w, "add admin failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, &AdminStatusResponse{
		Principal: req.parsedPrincipal.Hex(),
		IsAdmin:   true,
	})
}

// HandleRemoveAdmin handles DELETE /admins/{principal}.
func (h *Handler) HandleRemoveAdmin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	principal, err := domain.ParseOptionalAddress(chi.URLParam(r, "principal"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.RemoveAdmin(ctx, principal); err != nil {
		h.fail(ctx, w, "remove admin failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleAdminStatus handles GET /admins/{principal}.
func (h *Handler) HandleAdminStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	principal, err := domain.ParseOptionalAddress(chi.URLParam(r, "principal"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	isAdmin, err := h.service.AdminStatus(ctx, principal)
	if err != nil {
		h.fail(ctx, w, "admin status lookup failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &AdminStatusResponse{
		Principal: principal.Hex(),
		IsAdmin:   isAdmin,
	})
}

// HandleListAdmins handles GET /admins.
func (h *Handler) HandleListAdmins(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	admins, err := h.service.ListAdmins(ctx)
	if err != nil {
		h.fail(ctx, w, "list admins failed", err)
		return
	}
	resp := &AdminListResponse{Admins: make([]string, 0, len(admins))}
	for _, a := range admins {
		resp.Admins = append(resp.Admins, a.Hex())
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleGetSettings handles GET /config.
func (h *Handler) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	settings, err := h.service.Settings(ctx)
	if err != nil {
		h.fail(ctx, w, "settings lookup failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromSettings(settings))
}

// HandleChangeWaitedTS handles PUT /config/waited-ts.
func (h *Handler) HandleChangeWaitedTS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ChangeWaitedTSRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := h.service.ChangeWaitedTS(ctx, req.WaitedTS); err != nil {
		h.fail(ctx, w, "change waited ts failed", err)
		return
	}
	h.writeSettings(ctx, w)
}

// HandleChangeVestingRegistry handles PUT /config/vesting-registry.
func (h *Handler) HandleChangeVestingRegistry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ChangeVestingRegistryRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := h.service.ChangeVestingRegistry(ctx, req.parsedRegistry); err != nil {
		h.fail(ctx, w, "change vesting registry failed", err)
		return
	}
	h.writeSettings(ctx, w)
}

func (h *Handler) writeSettings(ctx context.Context, w http.ResponseWriter) {
	settings, err := h.service.Settings(ctx)
	if err != nil {
		h.fail(ctx, w, "settings lookup failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromSettings(settings))
}

// HandleDepositVested handles POST /deposits/vested.
func (h *Handler) HandleDepositVested(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[VestedDepositRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := h.service.DepositVested(ctx, req.parsedBeneficiary, req.Deposit()); err != nil {
		h.fail(ctx, w, "vested deposit failed", err)
		return
	}
	h.writeAccount(ctx, w, http.StatusCreated, req.parsedBeneficiary)
}

// HandleDepositWaitedUnlocked handles POST /deposits/waited-unlocked.
func (h *Handler) HandleDepositWaitedUnlocked(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[WaitedUnlockedDepositRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := h.service.DepositWaitedUnlocked(ctx, req.parsedBeneficiary, req.Deposit()); err != nil {
		h.fail(ctx, w, "waited unlocked deposit failed", err)
		return
	}
	h.writeAccount(ctx, w, http.StatusCreated, req.parsedBeneficiary)
}

// HandleWithdrawWaitedUnlocked handles POST /withdrawals/waited-unlocked.
func (h *Handler) HandleWithdrawWaitedUnlocked(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[WithdrawRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	dest, amount, err := h.service.WithdrawWaitedUnlockedBalance(ctx, req.parsedReceiver)
	if err != nil {
		h.fail(ctx, w, "withdrawal failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &WithdrawResponse{
		Receiver: dest.Hex(),
		Amount:   domain.FormatAmount(amount),
	})
}

// HandleCreateVesting handles POST /vesting.
func (h *Handler) HandleCreateVesting(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	handle, err := h.service.CreateVesting(ctx)
	if err != nil {
		h.fail(ctx, w, "create vesting failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newVestingResponse(handle, nil))
}

// HandleCreateVestingAndStake handles POST /vesting/stake.
func (h *Handler) HandleCreateVestingAndStake(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	handle, amount, err := h.service.CreateVestingAndStake(ctx)
	if err != nil {
		h.fail(ctx, w, "create vesting and stake failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newVestingResponse(handle, amount))
}

// HandleGetAccount handles GET /accounts/{address}.
func (h *Handler) HandleGetAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	owner, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.writeAccount(ctx, w, http.StatusOK, owner)
}

func (h *Handler) writeAccount(ctx context.Context, w http.ResponseWriter, status int, owner domain.Address) {
	acct, err := h.service.Account(ctx, owner)
	if err != nil {
		h.fail(ctx, w, "account lookup failed", err)
		return
	}
	httputil.WriteJSON(w, status, FromAccount(acct))
}

// HandleAuditTrail handles GET /audit/{address}.
func (h *Handler) HandleAuditTrail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	principal, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	events, err := h.service.AuditTrail(ctx, principal)
	if err != nil {
		h.fail(ctx, w, "audit trail lookup failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromAuditEvents(events))
}

// HandleRecentAudit handles GET /audit?limit=N.
func (h *Handler) HandleRecentAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be an integer"))
			return
		}
		limit = n
	}
	events, err := h.service.RecentAudit(ctx, limit)
	if err != nil {
		h.fail(ctx, w, "recent audit lookup failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromAuditEvents(events))
}

// fail logs at error level for internal failures and at warn level for
// rejections, then writes the error response.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	attrs := []any{
		"request_id", requestcontext.RequestID(ctx),
		"caller", requestcontext.Caller(ctx).Hex(),
		"error", err,
	}
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg, attrs...)
	} else {
		h.logger.WarnContext(ctx, msg, attrs...)
	}
	httputil.WriteError(w, err)
}
