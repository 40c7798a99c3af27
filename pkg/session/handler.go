package session

import (
	"context"
	"fmt"

	"github.com/oneilljw/homecontrol/pkg/authority"
	"github.com/oneilljw/homecontrol/pkg/proto"
	log "github.com/sirupsen/logrus"
)

// commandHandler is similar to http.Handler and allows us to wrap handlers
// with middleware, e.g. the logged handler.
type commandHandler interface {
	Handle(ctx context.Context, cmd proto.Command) (string, Flag)
}

type commandHandlerFunc func(ctx context.Context, cmd proto.Command) (string, Flag)

func (f commandHandlerFunc) Handle(ctx context.Context, cmd proto.Command) (string, Flag) {
	return f(ctx, cmd)
}

// handle dispatches one command and returns the response for the client.
func (sess *Session) handle(ctx context.Context, cmd proto.Command) (string, Flag) {
	// Any inbound line counts as heartbeat, valid or not.
	sess.touch(cmd.Raw)

	switch cmd.Type {
	case proto.CommandLogin:
		return sess.loginHandler().Handle(ctx, cmd)
	case proto.CommandGetStatus:
		return sess.logged(sess.statusHandler()).Handle(ctx, cmd)
	case proto.CommandGetChanges:
		return sess.changesHandler().Handle(ctx, cmd)
	case proto.CommandPostStatus:
		return sess.logged(sess.updateHandler()).Handle(ctx, cmd)
	case proto.CommandLogout:
		return proto.ResponseGoodbye, FlagCloseGracefully
	}

	return proto.Unrecognized(cmd.Raw), FlagContinue
}

// logged reports the command and its response to the observers.
func (sess *Session) logged(next commandHandler) commandHandler {
	return commandHandlerFunc(func(ctx context.Context, cmd proto.Command) (string, Flag) {
		sess.srv.reg.notifier.LogMessage(cmd.Raw)
		res, flag := next.Handle(ctx, cmd)
		sess.srv.reg.notifier.LogMessage(res)
		return res, flag
	})
}

func (sess *Session) loginHandler() commandHandlerFunc {
	return commandHandlerFunc(func(ctx context.Context, cmd proto.Command) (string, Flag) {
		login, err := proto.UnmarshalLogin(cmd.Payload)
		if err != nil {
			sess.srv.reg.loginAttempt(false, fmt.Sprintf("Client %d login request failed: %s", sess.id, err))
			return proto.Invalid(proto.ReasonMalformedLogin), FlagContinue
		}

		if err := sess.srv.auth.Authorize(login); err != nil {
			reason := proto.ReasonIncorrectPassword
			if authority.IsAuthorizationError(err) {
				reason = err.(*authority.AuthorizeError).Reason
			}
			sess.srv.reg.loginAttempt(false, fmt.Sprintf("Client %d login request failed with v%s: %s",
				sess.id, login.ClientVersion, reason))
			return proto.Invalid(reason), FlagContinue
		}

		sess.Lock()
		if sess.state != StateEnded {
			sess.state = StateLoggedIn
		}
		sess.login = login
		sess.version = login.ClientVersion
		sess.Unlock()

		sess.srv.reg.loginAttempt(true, fmt.Sprintf("Client %d, %s login request successful", sess.id, login.UserID))
		return proto.ResponseValid, FlagContinue
	})
}

func (sess *Session) statusHandler() commandHandlerFunc {
	return commandHandlerFunc(func(ctx context.Context, cmd proto.Command) (string, Flag) {
		return sess.srv.gw.Status(), FlagContinue
	})
}

func (sess *Session) changesHandler() commandHandlerFunc {
	return commandHandlerFunc(func(ctx context.Context, cmd proto.Command) (string, Flag) {
		changes := sess.changes.drain()

		res, err := proto.MarshalChanges(changes)
		if err != nil {
			log.WithField("session_id", sess.id).Errorf("session failed to marshal changes: %s", err)
			return proto.ResponseNoChanges, FlagContinue
		}

		if len(changes) > 0 {
			sess.srv.reg.notifier.LogMessage("GET<changes> Response: " + res)
		}
		return res, FlagContinue
	})
}

func (sess *Session) updateHandler() commandHandlerFunc {
	return commandHandlerFunc(func(ctx context.Context, cmd proto.Command) (string, Flag) {
		res, changed := sess.srv.gw.Apply(ctx, cmd.Payload)
		if changed {
			n := sess.srv.reg.Broadcast(sess, res)
			log.WithField("session_id", sess.id).Debugf("session broadcast change to %d sessions", n)
		}
		return res, FlagContinue
	})
}
