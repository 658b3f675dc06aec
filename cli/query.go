package cli

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/faeton/treasury-sdk-go/services/treasury"
	"github.com/faeton/treasury-sdk-go/utils"
)

// stateReader returns the on-chain reader, or the static reader on dry runs.
func (a *App) stateReader() (treasury.ContractStateReader, func(), error) {
	if a.dryRun {
		return treasury.NewStaticStateReader(), func() {}, nil
	}

	s, err := a.openSession(false)
	if err != nil {
		return nil, nil, err
	}
	addr, err := s.cfg.TreasuryAddr()
	if err != nil {
		s.Close()
		return nil, nil, err
	}
	return treasury.NewChainStateReader(s.client, addr), s.Close, nil
}

func (a *App) roomStateCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "room-state <roomId> <day>",
		Aliases: []string{"roomState"},
		Short:   "Show the state of a room",
		Args:    exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			roomID, day, err := parseRoom(args[0], args[1])
			if err != nil {
				return err
			}

			reader, done, err := a.stateReader()
			if err != nil {
				return err
			}
			defer done()

			state, err := reader.GetRoomState(cmd.Context(), roomID, day)
			if err != nil {
				return fmt.Errorf("get room state: %w", err)
			}

			paid := "none"
			if state.PaidHash != nil {
				paid = hexutil.Encode(state.PaidHash)
			}
			a.printFields([][2]string{
				{"Room ID", roomID.String()},
				{"Day", fmt.Sprint(day)},
				{"Room Key", state.Key.String()},
				{"Status", state.Status.String()},
				{"Entry Fee", utils.FormatTON(state.EntryFee) + " TON"},
				{"Winners Count", fmt.Sprint(state.WinnersCount)},
				{"Pool After Fee", utils.FormatTON(state.PoolAfterFee) + " TON"},
				{"Total Entries", fmt.Sprint(state.TotalEntries)},
				{"Paid Hash", paid},
			})
			return nil
		},
	}
}

func (a *App) roomsCommand() *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:     "rooms <day> <roomId>...",
		Short:   "Show the status of several rooms of one day",
		Example: "  rooms 20241201 1 2 3",
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseDay(args[0])
			if err != nil {
				return err
			}
			roomIDs := make([]*big.Int, 0, len(args)-1)
			for _, arg := range args[1:] {
				id, err := parseRoomID(arg)
				if err != nil {
					return err
				}
				roomIDs = append(roomIDs, id)
			}

			reader, done, err := a.stateReader()
			if err != nil {
				return err
			}
			defer done()

			res := utils.BatchQuery(cmd.Context(), roomIDs, func(ctx context.Context, id *big.Int, _ int) (*treasury.RoomState, error) {
				return reader.GetRoomState(ctx, id, day)
			}, &utils.BatchConfig{Concurrency: concurrency})

			for i, item := range res.Items {
				if item.Err != nil {
					fmt.Fprintf(a.Stdout, "%s: error: %v\n", roomIDs[i].String(), item.Err)
					continue
				}
				st := item.Value
				fmt.Fprintf(a.Stdout, "%s: %s, entries %d, pool %s TON\n",
					roomIDs[i].String(), st.Status, st.TotalEntries, utils.FormatTON(st.PoolAfterFee))
			}
			if res.Failed > 0 {
				return fmt.Errorf("%d of %d room queries failed", res.Failed, res.Total)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&concurrency, "concurrency", 5, "Maximum parallel queries")
	return cmd
}

func (a *App) balanceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show the treasury balance, airdrop pool and authorities",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			reader, done, err := a.stateReader()
			if err != nil {
				return err
			}
			defer done()

			ctx := cmd.Context()
			balance, err := reader.GetBalance(ctx)
			if err != nil {
				return fmt.Errorf("get balance: %w", err)
			}
			pool, err := reader.GetAirdropPool(ctx)
			if err != nil {
				return fmt.Errorf("get airdrop pool: %w", err)
			}
			owner, err := reader.GetOwner(ctx)
			if err != nil {
				return fmt.Errorf("get owner: %w", err)
			}
			authority, err := reader.GetUpgradeAuthority(ctx)
			if err != nil {
				return fmt.Errorf("get upgrade authority: %w", err)
			}

			a.printFields([][2]string{
				{"Balance", utils.FormatTON(balance) + " TON"},
				{"Airdrop Pool", utils.FormatTON(pool) + " TON"},
				{"Owner", owner.String()},
				{"Upgrade Authority", authority.String()},
			})
			return nil
		},
	}
}
