package cli

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/radieske/auraflow/internal/api/dto"
	"github.com/radieske/auraflow/internal/session"
	"github.com/radieske/auraflow/internal/shared/apperr"
)

func NewSessionCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Start, stop and inspect the focus session",
	}

	cmd.AddCommand(newSessionStartCommand(rootOpts))
	cmd.AddCommand(newSessionStopCommand(rootOpts))
	cmd.AddCommand(newSessionStatusCommand(rootOpts))
	return cmd
}

func newSessionStartCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "start <15|30|60>",
		Short: "Start a focus session",
		Long: `Start a focus session of 15, 30 or 60 minutes (20, 40 or 100 coins).
The session keeps running after this command exits; it completes on the
next command or tick of "auraflow serve" after the end time.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			minutes, err := strconv.Atoi(args[0])
			if err != nil {
				return apperr.InvalidInput("Invalid session duration")
			}
			p := newPrinter(rootOpts, cmd.OutOrStdout())
			return withRuntime(cmd.Context(), func(rt *runtime) error {
				st, err := rt.app.Sessions.Start(cmd.Context(), minutes)
				if err != nil {
					return err
				}
				return printState(p, st)
			})
		},
	}
}

func newSessionStopCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running session without reward",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrinter(rootOpts, cmd.OutOrStdout())
			return withRuntime(cmd.Context(), func(rt *runtime) error {
				ws, err := rt.app.Sessions.Stop(cmd.Context())
				if err != nil {
					return err
				}
				if p.json() {
					return p.JSON(dto.StopSessionResponse{Stopped: ws != nil, Session: ws})
				}
				if ws == nil {
					p.Line("no session running")
					return nil
				}
				p.Line("session stopped after %s, no coins earned", ws.EndTime.Sub(ws.StartTime).Round(time.Second))
				return nil
			})
		},
	}
}

func newSessionStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the running session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrinter(rootOpts, cmd.OutOrStdout())
			return withRuntime(cmd.Context(), func(rt *runtime) error {
				return printState(p, rt.app.Sessions.State())
			})
		},
	}
}

func printState(p printer, st session.State) error {
	if p.json() {
		return p.JSON(st)
	}
	if st.Status != session.StatusRunning {
		p.Line("idle")
		return nil
	}
	remaining := time.Duration(st.TotalSeconds-st.ElapsedSeconds) * time.Second
	p.Line("running %d min session (x%d), %s left", st.DurationMinutes, st.Multiplier, remaining)
	return nil
}
