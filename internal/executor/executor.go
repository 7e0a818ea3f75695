// Package executor is the child-process side of a stage run. It reads one
// stageexec.Request from stdin, performs exactly one externally visible
// action, and writes one stageexec.Result to stdout. It never writes item
// status; the orchestrator does that from the exit code and result.
package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"outreach/internal/config"
	"outreach/internal/logging"
	"outreach/internal/services"
	"outreach/internal/services/crm"
	"outreach/internal/services/voice"
	"outreach/internal/stageexec"
)

// Exit codes.
const (
	ExitOK         = 0
	ExitFailed     = 1
	ExitBadRequest = 2
)

const maxRequestBytes = 1 << 20

// Messenger is satisfied by *crm.Client.
type Messenger interface {
	Deliver(ctx context.Context, contact crm.Contact, msg crm.Message) (string, error)
}

// Caller is satisfied by *voice.Client.
type Caller interface {
	PlaceCall(ctx context.Context, call voice.Call) (string, error)
}

// Deps are the collaborators an executor may use.
type Deps struct {
	Messenger Messenger
	Caller    Caller
	Logger    *zap.Logger
}

// DepsFromConfig builds collaborator clients from cfg.
func DepsFromConfig(cfg *config.Config, logger *zap.Logger) Deps {
	return Deps{
		Messenger: crm.NewFromConfig(cfg, logger),
		Caller:    voice.NewFromConfig(cfg, logger),
		Logger:    logger,
	}
}

// Main runs one executor invocation and returns the process exit code.
func Main(ctx context.Context, deps Deps, stdin io.Reader, stdout, stderr io.Writer) (code int) {
	logger := logging.NewComponentLogger(deps.Logger, "executor")

	var req stageexec.Request
	data, err := io.ReadAll(io.LimitReader(stdin, maxRequestBytes))
	if err == nil {
		err = json.Unmarshal(data, &req)
	}
	if err == nil {
		err = req.Validate()
	}
	if err != nil {
		fmt.Fprintf(stderr, "invalid executor request: %v\n", err)
		writeResult(stdout, stderr, stageexec.Result{ItemID: req.ItemID, Action: req.Action, Error: services.Truncate(err.Error())})
		return ExitBadRequest
	}

	ctx = services.WithItemID(ctx, req.ItemID)
	ctx = services.WithStage(ctx, string(req.Action))
	ctx = services.WithRequestID(ctx, req.CorrelationID)
	logger = logging.WithContext(ctx, logger)

	result := stageexec.Result{ItemID: req.ItemID, Action: req.Action}
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(stderr, "executor panic: %v\n", r)
			result.OK = false
			result.Error = services.Truncate(fmt.Sprint(r))
			writeResult(stdout, stderr, result)
			code = ExitFailed
		}
	}()

	switch req.Action {
	case stageexec.ActionEmail:
		result.MessageID, err = sendEmail(ctx, deps, req)
	case stageexec.ActionCall:
		result.CallID, err = placeCall(ctx, deps, req)
	}
	if err != nil {
		logger.Error("executor action failed",
			zap.Error(err),
			logging.Event("executor_action_failed"),
			logging.ErrorKind(err),
		)
		fmt.Fprintf(stderr, "%s action failed: %v\n", req.Action, err)
		result.Error = services.ErrorMessage(err)
		writeResult(stdout, stderr, result)
		return ExitFailed
	}

	result.OK = true
	logger.Info("executor action succeeded",
		logging.Event("executor_action_succeeded"),
		zap.String("message_id", result.MessageID),
		zap.String("call_id", result.CallID),
	)
	writeResult(stdout, stderr, result)
	return ExitOK
}

func sendEmail(ctx context.Context, deps Deps, req stageexec.Request) (string, error) {
	if deps.Messenger == nil {
		return "", services.Wrap(services.ErrConfiguration, "executor", "email", "crm collaborator not configured", nil)
	}
	contact := crm.Contact{
		Email:   strings.TrimSpace(req.Email),
		Name:    strings.TrimSpace(req.ContactName),
		Phone:   strings.TrimSpace(req.Phone),
		Company: strings.TrimSpace(req.CompanyName),
	}
	msg := crm.Message{
		To:        contact.Email,
		Subject:   req.Subject,
		Body:      req.Body,
		Reference: fmt.Sprintf("item-%d-email", req.ItemID),
	}
	return deps.Messenger.Deliver(ctx, contact, msg)
}

func placeCall(ctx context.Context, deps Deps, req stageexec.Request) (string, error) {
	if deps.Caller == nil {
		return "", services.Wrap(services.ErrConfiguration, "executor", "call", "voice collaborator not configured", nil)
	}
	return deps.Caller.PlaceCall(ctx, voice.Call{
		Phone:       strings.TrimSpace(req.Phone),
		ContactName: strings.TrimSpace(req.ContactName),
		Company:     strings.TrimSpace(req.CompanyName),
		Reference:   fmt.Sprintf("item-%d-call", req.ItemID),
	})
}

func writeResult(stdout, stderr io.Writer, result stageexec.Result) {
	if err := json.NewEncoder(stdout).Encode(result); err != nil {
		fmt.Fprintf(stderr, "write executor result: %v\n", err)
	}
}
