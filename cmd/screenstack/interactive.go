package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/amp-labs/screenflow/cli"
	"github.com/amp-labs/screenflow/coroutine"
	"github.com/amp-labs/screenflow/logger"
	"github.com/amp-labs/screenflow/screens"
	"github.com/amp-labs/screenflow/statemachine"
	"github.com/spf13/cobra"
)

const (
	actionInterrupt = "[interrupt]"
	actionTimeScale = "[time scale]"
	actionStatus    = "[status]"
	actionQuit      = "[quit]"

	showPrefix = "show "

	renderInterval = 100 * time.Millisecond
)

var defaultScreens = []string{"title", "menu", "options", "game"} //nolint:gochecknoglobals

var interactiveCmd = &cobra.Command{ //nolint:gochecknoglobals
	Use:   "interactive [screen]...",
	Short: "Switch between fading screens from the terminal",
	Long: `Builds a stack of screens (title, menu, options and game unless names are
given) and ticks it in real time. Pick a screen to fade to it, or interrupt
the running transition to make it finish immediately.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if len(args) == 0 {
			args = defaultScreens
		}

		return runInteractive(cmd.Context(), cmd.OutOrStdout(), cfg, args)
	},
}

func init() { //nolint:gochecknoinits
	rootCmd.AddCommand(interactiveCmd)
}

type session struct {
	out   io.Writer
	sched *coroutine.Scheduler
	stack *screens.Stack
}

func newSession(ctx context.Context, out io.Writer, cfg *config, names []string) (*session, error) {
	sched := coroutine.NewScheduler(
		coroutine.WithName(appName),
		coroutine.WithTimeScale(cfg.TimeScale),
		coroutine.WithContext(ctx),
	)

	stack := screens.NewStack(sched, statemachine.WithName("screens"))

	for _, name := range names {
		if _, err := stack.Add(name,
			screens.WithFadeTime(cfg.FadeTime),
			screens.WithEasing(screens.Smoothstep),
		); err != nil {
			sched.Stop()

			return nil, err
		}
	}

	return &session{out: out, sched: sched, stack: stack}, nil
}

func (s *session) close() {
	s.stack.Close()
	s.sched.Stop()
}

func runInteractive(ctx context.Context, out io.Writer, cfg *config, names []string) error {
	sess, err := newSession(ctx, out, cfg, names)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)

	loopErr := make(chan error, 1)
	loopDone := make(chan struct{})

	go func() {
		defer close(loopDone)

		loopErr <- sess.sched.Run(ctx, cfg.tickInterval())
	}()

	// The host loop must be out of Tick before the stack and scheduler are
	// torn down.
	defer func() {
		cancel()
		<-loopDone
		sess.close()
	}()

	actions := make([]string, 0, len(names)+4) //nolint:mnd
	for _, name := range sess.stack.Names() {
		actions = append(actions, showPrefix+name)
	}

	actions = append(actions, actionInterrupt, actionTimeScale, actionStatus, actionQuit)

	for {
		fmt.Fprint(out, sess.stack.Render())

		action, err := cli.Select("Action", actions...)
		if err != nil {
			return err
		}

		select {
		case <-loopDone:
			return loopError(<-loopErr)
		default:
		}

		done, err := sess.apply(ctx, action)
		if err != nil {
			return err
		}

		if done {
			return nil
		}
	}
}

func loopError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, coroutine.ErrStopped) {
		return nil
	}

	return err
}

// apply performs one picked action and reports whether the session is over.
func (s *session) apply(ctx context.Context, action string) (bool, error) {
	switch action {
	case actionQuit:
		return cli.PromptConfirm("Quit")
	case actionInterrupt:
		s.stack.Interrupt(ctx)
		s.follow(ctx)
	case actionTimeScale:
		scale, err := cli.PromptFloat("Time scale", 0)
		if err != nil {
			return false, err
		}

		s.sched.SetTimeScale(scale)
	case actionStatus:
		s.status()
	default:
		return false, s.show(ctx, action[len(showPrefix):])
	}

	return false, nil
}

func (s *session) show(ctx context.Context, name string) error {
	var opts []statemachine.TransitionOption

	if current := s.stack.Machine().State(); current != nil && current.Name() == name {
		force, err := cli.PromptConfirm("Already showing " + name + ", replay the fade")
		if err != nil {
			return err
		}

		if !force {
			return nil
		}

		opts = append(opts, statemachine.Force())
	}

	err := s.stack.Show(ctx, name, opts...)
	if errors.Is(err, statemachine.ErrIllegalState) {
		fmt.Fprintln(s.out, "a transition is still running; interrupt it or wait")

		return nil
	}

	if err != nil {
		return err
	}

	s.follow(ctx)

	return nil
}

// follow renders the stack until the current transition settles.
func (s *session) follow(ctx context.Context) {
	settled := s.stack.Machine().Settled()

	ticker := time.NewTicker(renderInterval)
	defer ticker.Stop()

	for !settled.IsDone() {
		select {
		case <-ctx.Done():
			return
		case <-settled.Done():
		case <-ticker.C:
			fmt.Fprint(s.out, s.stack.Render())
		}
	}

	if err := settled.Err(); err != nil {
		logger.Get(ctx).Warn("transition failed", "error", err)
	}
}

func (s *session) status() {
	machine := s.stack.Machine()
	frame := s.sched.Frame()

	fmt.Fprintf(s.out, "state %s (previous %s) for %s, tick %d, time scale %.2f\n",
		statemachine.StateName(machine.State()),
		statemachine.StateName(machine.Previous()),
		machine.TimeInState().Round(time.Millisecond),
		frame.Index,
		s.sched.TimeScale())
}
