package server

import (
	"errors"
	"fmt"

	"github.com/rocketscienceinc/goban-server/internal/apperror"
	"github.com/rocketscienceinc/goban-server/internal/protocol"
)

var (
	errExpectingJoin = errors.New(protocol.ExpectingJoin)
	errAlreadyJoined = fmt.Errorf("%w: already joined", apperror.ErrMalformedCommand)
)

func (that *Server) handleRejoin(_ *client, _ string) error {
	return errAlreadyJoined
}

func (that *Server) handleMove(c *client, line string) error {
	x, y, err := protocol.ParseMove(line)
	if err != nil {
		return err
	}

	if _, err = that.session.ApplyMove(c.playerID, x, y); err != nil {
		return fmt.Errorf("failed to apply move: %w", err)
	}

	return nil
}

func (that *Server) handlePass(c *client, line string) error {
	if err := expectNoArgs(line); err != nil {
		return err
	}

	return that.session.Pass(c.playerID)
}

func (that *Server) handleResign(c *client, line string) error {
	if err := expectNoArgs(line); err != nil {
		return err
	}

	return that.session.Resign(c.playerID)
}

func (that *Server) handleMark(c *client, line string) error {
	x, y, dead, err := protocol.ParseMark(line)
	if err != nil {
		return err
	}

	return that.session.MarkGroup(c.playerID, x, y, dead)
}

func (that *Server) handleAccept(c *client, line string) error {
	if err := expectNoArgs(line); err != nil {
		return err
	}

	return that.session.Accept(c.playerID)
}

func (that *Server) handleResume(c *client, line string) error {
	if err := expectNoArgs(line); err != nil {
		return err
	}

	return that.session.Resume(c.playerID)
}

func expectNoArgs(line string) error {
	cmd, err := protocol.ParseCommand(line)
	if err != nil {
		return err
	}

	if len(cmd.Args) > 0 {
		return fmt.Errorf("%w: %s takes no arguments", apperror.ErrMalformedCommand, cmd.Verb)
	}

	return nil
}
