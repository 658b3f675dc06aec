package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/faeton/treasury-sdk-go/services/treasury"
	"github.com/faeton/treasury-sdk-go/utils"
)

func (a *App) openRoomCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "openRoom <roomId> <day> <entryFee> <tier>",
		Aliases: []string{"open-room", "openroom"},
		Short:   "Open a paid room",
		Example: "  openRoom 12345 20241201 1.0 1\n\nRisk Tiers:\n  1 = Low Risk (100 winners)\n  2 = Medium Risk (50 winners)\n  3 = High Risk (20 winners)",
		Args:    exactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			roomID, day, err := parseRoom(args[0], args[1])
			if err != nil {
				return err
			}
			entryFee, err := parseAmount(args[2], treasury.ErrInvalidEntryFee)
			if err != nil {
				return err
			}
			tier, err := parseTier(args[3])
			if err != nil {
				return err
			}

			op := &treasury.OpenRoom{RoomID: roomID, Day: day, EntryFee: entryFee, Tier: tier}
			return a.execute(cmd, op, "Room opened successfully!", [][2]string{
				{"Room ID", roomID.String()},
				{"Day", fmt.Sprint(day)},
				{"Entry Fee", utils.FormatTON(entryFee) + " TON"},
				{"Risk Tier", fmt.Sprintf("%d (%s, %d winners)", tier, tier, tier.WinnerSlots())},
			})
		},
	}
}

func (a *App) enterPaidCommand() *cobra.Command {
	var entryFee string

	cmd := &cobra.Command{
		Use:     "enterPaid <roomId> <day>",
		Aliases: []string{"enter-paid", "enterpaid"},
		Short:   "Enter a paid room, attaching the entry fee",
		Example: "  enterPaid 12345 20241201 --entry-fee 1.5",
		Args:    exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			roomID, day, err := parseRoom(args[0], args[1])
			if err != nil {
				return err
			}
			fee, err := parseAmount(entryFee, treasury.ErrInvalidEntryFee)
			if err != nil {
				return err
			}

			op := &treasury.EnterPaid{RoomID: roomID, Day: day, EntryFee: fee}
			return a.execute(cmd, op, "Entered room successfully!", [][2]string{
				{"Room ID", roomID.String()},
				{"Day", fmt.Sprint(day)},
				{"Entry Fee", utils.FormatTON(fee) + " TON"},
			})
		},
	}
	cmd.Flags().StringVar(&entryFee, "entry-fee", "1", "Entry fee in TON attached to the message")
	return cmd
}

func (a *App) closeRoomCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "closeRoom <roomId> <day>",
		Aliases: []string{"close-room", "closeroom"},
		Short:   "Close a room",
		Example: "  closeRoom 12345 20241201",
		Args:    exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			roomID, day, err := parseRoom(args[0], args[1])
			if err != nil {
				return err
			}

			op := &treasury.CloseRoom{RoomID: roomID, Day: day}
			return a.execute(cmd, op, "Room closed successfully!", [][2]string{
				{"Room ID", roomID.String()},
				{"Day", fmt.Sprint(day)},
			})
		},
	}
}

func (a *App) payoutPaidCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "payoutPaid <roomId> <day> <winnersCount>",
		Aliases: []string{"payout-paid", "payoutpaid"},
		Short:   "Pay out a paid room",
		Example: "  payoutPaid 12345 20241201 10",
		Args:    exactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			roomID, day, err := parseRoom(args[0], args[1])
			if err != nil {
				return err
			}
			count, err := parseCount(args[2], treasury.ValidateWinnersCount, treasury.ErrInvalidWinnersCount)
			if err != nil {
				return err
			}

			winners, err := a.Winners.Winners(cmd.Context(), count)
			if err != nil {
				return fmt.Errorf("resolve winners: %w", err)
			}
			weights := treasury.CreateLinearWeights(count)
			if !treasury.ValidateLinearWeights(weights) {
				return treasury.ErrInvalidWeights()
			}

			var total uint64
			for _, w := range weights {
				total += uint64(w)
			}

			op := &treasury.PayoutPaid{RoomID: roomID, Day: day, Winners: winners, Weights: weights}
			return a.execute(cmd, op, "Payout initiated successfully!", [][2]string{
				{"Room ID", roomID.String()},
				{"Day", fmt.Sprint(day)},
				{"Winners Count", fmt.Sprint(count)},
				{"Total Weight", fmt.Sprint(total)},
			})
		},
	}
}

func (a *App) payoutAirdropCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "payoutAirdrop <topWinnersCount> <streakWinnersCount>",
		Aliases: []string{"payout-airdrop", "payoutairdrop"},
		Short:   "Pay out the airdrop pool",
		Example: "  payoutAirdrop 10 5",
		Args:    exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			top, err := parseCount(args[0], treasury.ValidateAirdropCount, treasury.ErrInvalidTopCount)
			if err != nil {
				return err
			}
			streak, err := parseCount(args[1], treasury.ValidateAirdropCount, treasury.ErrInvalidStreakCount)
			if err != nil {
				return err
			}

			topWinners, err := a.Winners.Winners(cmd.Context(), top)
			if err != nil {
				return fmt.Errorf("resolve top winners: %w", err)
			}
			streakWinners, err := a.Winners.Winners(cmd.Context(), streak)
			if err != nil {
				return fmt.Errorf("resolve streak winners: %w", err)
			}

			op := &treasury.PayoutAirdrop{TopWinners: topWinners, StreakWinners: streakWinners}
			return a.execute(cmd, op, "Airdrop payout initiated successfully!", [][2]string{
				{"Top Winners", fmt.Sprint(top)},
				{"Streak Winners", fmt.Sprint(streak)},
			})
		},
	}
}

func (a *App) upgradeCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "upgrade <newCodePath>",
		Short:   "Upgrade the contract code",
		Example: "  upgrade build/Treasury.compiled.json",
		Args:    exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := strings.TrimSpace(args[0])
			if path == "" {
				return treasury.ErrInvalidCodePath(nil)
			}
			code, err := utils.LoadCodeCell(path)
			if err != nil {
				return treasury.ErrInvalidCodePath(err)
			}

			op := &treasury.Upgrade{NewCode: code}
			return a.execute(cmd, op, "Upgrade initiated successfully!", [][2]string{
				{"New Code Path", path},
				{"Code Hash", fmt.Sprintf("%x", code.Hash())},
			})
		},
	}
}

func (a *App) fundAirdropCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "fundAirdrop <amount>",
		Aliases: []string{"fund-airdrop", "fundairdrop"},
		Short:   "Fund the airdrop pool",
		Example: "  fundAirdrop 10.5",
		Args:    exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[0], treasury.ErrInvalidAmount)
			if err != nil {
				return err
			}

			op := &treasury.FundAirdrop{Amount: amount}
			return a.execute(cmd, op, "Airdrop funded successfully!", [][2]string{
				{"Amount", utils.FormatTON(amount) + " TON"},
			})
		},
	}
}
