package main

import (
	"encoding/hex"
	"strconv"

	"github.com/iov-one/threshold"
	"github.com/iov-one/threshold/app"
	"github.com/iov-one/threshold/errors"
	"github.com/iov-one/threshold/x/events"
	"github.com/iov-one/threshold/x/proposals"
	"github.com/spf13/cobra"
)

func (c *cli) initCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [principal...]",
		Short: "Create a wallet with given principals",
		Long: `Create a wallet with given principals and threshold.

Principals and threshold default to the genesis.principals and
genesis.threshold configuration values.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = c.v.GetStringSlice("genesis.principals")
			}
			members := make([]threshold.Address, len(args))
			for i, raw := range args {
				a, err := threshold.ParseAddress(raw)
				if err != nil {
					return errors.Wrapf(errors.ErrConfiguration, "principal #%d: %s", i, err)
				}
				members[i] = a
			}
			db, err := c.openDB()
			if err != nil {
				return err
			}
			err = app.Init(db, members, c.v.GetInt("genesis.threshold"))
			db.Close()
			if err != nil {
				return err
			}
			c.logger.Info("wallet created", "principals", len(members), "threshold", c.v.GetInt("genesis.threshold"))
			return c.open(func(w *app.Wallet) error {
				return c.print(walletView{
					Address:    w.Address(),
					Principals: w.ListPrincipals(),
					Threshold:  w.Threshold(),
				})
			})
		},
	}
	cmd.Flags().Int("threshold", 1, "confirmations required to execute")
	if err := c.v.BindPFlag("genesis.threshold", cmd.Flags().Lookup("threshold")); err != nil {
		panic(err)
	}
	return cmd
}

func (c *cli) depositCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deposit <amount>",
		Short: "Move value from the acting address into the wallet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sender, err := c.caller()
			if err != nil {
				return err
			}
			amount, err := parseUint(args[0], "amount")
			if err != nil {
				return err
			}
			return c.open(func(w *app.Wallet) error {
				balance, err := w.Deposit(c.context(), sender, amount)
				if err != nil {
					return err
				}
				return c.print(map[string]uint64{"balance": balance})
			})
		},
	}
}

func (c *cli) submitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "submit <target> <value> [payload-hex]",
		Short: "Propose an action",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := c.caller()
			if err != nil {
				return err
			}
			target, err := threshold.ParseAddress(args[0])
			if err != nil {
				return errors.Wrap(err, "target")
			}
			value, err := parseUint(args[1], "value")
			if err != nil {
				return err
			}
			var payload []byte
			if len(args) == 3 {
				if payload, err = hex.DecodeString(args[2]); err != nil {
					return errors.Wrap(errors.ErrInput, "payload must be hex encoded")
				}
			}
			return c.open(func(w *app.Wallet) error {
				id, err := w.SubmitAction(c.context(), caller, target, value, payload)
				if err != nil {
					return err
				}
				return c.print(map[string]uint64{"id": id})
			})
		},
	}
}

// transition builds the commands that change the state of a proposal and
// print it afterwards.
func (c *cli) transition(use, short string, op func(*app.Wallet) func(threshold.Context, threshold.Address, uint64) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := c.caller()
			if err != nil {
				return err
			}
			id, err := parseUint(args[0], "id")
			if err != nil {
				return err
			}
			return c.open(func(w *app.Wallet) error {
				if err := op(w)(c.context(), caller, id); err != nil {
					return err
				}
				p, err := w.GetProposal(c.context(), id)
				if err != nil {
					return err
				}
				return c.print(p)
			})
		},
	}
}

func (c *cli) confirmCmd() *cobra.Command {
	return c.transition("confirm", "Confirm a proposal", func(w *app.Wallet) func(threshold.Context, threshold.Address, uint64) error {
		return w.Confirm
	})
}

func (c *cli) revokeCmd() *cobra.Command {
	return c.transition("revoke", "Withdraw a confirmation", func(w *app.Wallet) func(threshold.Context, threshold.Address, uint64) error {
		return w.Revoke
	})
}

func (c *cli) executeCmd() *cobra.Command {
	return c.transition("execute", "Run the action of a confirmed proposal", func(w *app.Wallet) func(threshold.Context, threshold.Address, uint64) error {
		return w.Execute
	})
}

func (c *cli) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a proposal and who confirmed it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUint(args[0], "id")
			if err != nil {
				return err
			}
			return c.open(func(w *app.Wallet) error {
				ctx := c.context()
				p, err := w.GetProposal(ctx, id)
				if err != nil {
					return err
				}
				who, err := w.Confirmations(ctx, id)
				if err != nil {
					return err
				}
				return c.print(proposalView{Proposal: p, ConfirmedBy: who})
			})
		},
	}
}

func (c *cli) listCmd() *cobra.Command {
	var state string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List proposal ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, ok := map[string]proposals.Filter{
				"pending":  proposals.Pending,
				"executed": proposals.Executed,
				"all":      proposals.Any,
			}[state]
			if !ok {
				return errors.Wrapf(errors.ErrInput, "unknown state %q", state)
			}
			return c.open(func(w *app.Wallet) error {
				ids, err := w.ProposalIDs(c.context(), filter)
				if err != nil {
					return err
				}
				if ids == nil {
					ids = []uint64{}
				}
				return c.print(ids)
			})
		},
	}
	cmd.Flags().StringVar(&state, "state", "all", "pending, executed or all")
	return cmd
}

func (c *cli) principalsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "principals",
		Short: "Print the wallet configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.open(func(w *app.Wallet) error {
				balance, err := w.Balance(c.context())
				if err != nil {
					return err
				}
				return c.print(walletView{
					Address:    w.Address(),
					Principals: w.ListPrincipals(),
					Threshold:  w.Threshold(),
					Balance:    balance,
				})
			})
		},
	}
}

func (c *cli) eventsCmd() *cobra.Command {
	var from uint64
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Print the event log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.open(func(w *app.Wallet) error {
				records, err := w.Events(c.context(), from)
				if err != nil {
					return err
				}
				if records == nil {
					records = []events.Record{}
				}
				return c.print(records)
			})
		},
	}
	cmd.Flags().Uint64Var(&from, "from", 0, "first sequence number")
	return cmd
}

func (c *cli) verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check the confirmation ledger against the proposals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.open(func(w *app.Wallet) error {
				if err := w.Verify(c.context()); err != nil {
					return err
				}
				return c.print(map[string]bool{"ok": true})
			})
		},
	}
}

type walletView struct {
	Address    threshold.Address   `json:"address"`
	Principals []threshold.Address `json:"principals"`
	Threshold  int                 `json:"threshold"`
	Balance    uint64              `json:"balance"`
}

type proposalView struct {
	*proposals.Proposal
	ConfirmedBy []threshold.Address `json:"confirmed_by"`
}

func parseUint(raw, name string) (uint64, error) {
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrInput, "%s: %s", name, err)
	}
	return n, nil
}
