// Package cli implements the treasury command line tools.
//
// Every command validates its positional arguments before loading
// configuration or touching the network. Status lines go to stdout;
// errors and logs go to stderr.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/faeton/treasury-sdk-go/client"
	"github.com/faeton/treasury-sdk-go/config"
	"github.com/faeton/treasury-sdk-go/logging"
	"github.com/faeton/treasury-sdk-go/services/treasury"
	"github.com/faeton/treasury-sdk-go/types"
	"github.com/faeton/treasury-sdk-go/utils"
	"github.com/faeton/treasury-sdk-go/wallet"
)

// App carries the shared state of all commands.
type App struct {
	Stdout io.Writer
	Stderr io.Writer

	// NewClient opens the transport; replaced in tests.
	NewClient func(*client.Config) (client.Client, error)

	// Winners resolves payout winner lists.
	Winners treasury.WinnerSource

	// Now is used for build metadata timestamps.
	Now func() time.Time

	configPath string
	dryRun     bool
	wait       bool
}

// NewApp returns an App wired to the process streams and real transports.
func NewApp() *App {
	return &App{
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		NewClient: client.NewClient,
		Winners:   treasury.MockWinnerSource{},
		Now:       time.Now,
	}
}

// RootCommand builds the treasuryctl command tree.
func (a *App) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "treasuryctl",
		Short: "Treasury contract command line tools",
		Long:  "Validate, encode, sign and submit Treasury contract calls on TON.",
	}
	a.bindPersistentFlags(root)

	root.AddCommand(
		a.openRoomCommand(),
		a.enterPaidCommand(),
		a.closeRoomCommand(),
		a.payoutPaidCommand(),
		a.payoutAirdropCommand(),
		a.upgradeCommand(),
		a.fundAirdropCommand(),
		a.roomStateCommand(),
		a.roomsCommand(),
		a.balanceCommand(),
		a.buildInfoCommand(),
		a.keystoreCommand(),
	)
	return root
}

// OperationCommand builds a standalone command for a single contract method,
// used by the one-binary-per-operation tools.
func (a *App) OperationCommand(method string) (*cobra.Command, error) {
	if _, err := treasury.MethodFromName(method); err != nil {
		return nil, err
	}

	var cmd *cobra.Command
	switch method {
	case treasury.MethodOpenRoom:
		cmd = a.openRoomCommand()
	case treasury.MethodEnterPaid:
		cmd = a.enterPaidCommand()
	case treasury.MethodCloseRoom:
		cmd = a.closeRoomCommand()
	case treasury.MethodPayoutPaid:
		cmd = a.payoutPaidCommand()
	case treasury.MethodPayoutAirdrop:
		cmd = a.payoutAirdropCommand()
	case treasury.MethodUpgrade:
		cmd = a.upgradeCommand()
	case treasury.MethodFundAirdrop:
		cmd = a.fundAirdropCommand()
	}
	a.bindPersistentFlags(cmd)
	return cmd, nil
}

func (a *App) bindPersistentFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to treasury.yaml (default ./treasury.yaml)")
	cmd.PersistentFlags().BoolVar(&a.dryRun, "dry-run", false, "Validate and encode only; do not sign or send")
	cmd.PersistentFlags().BoolVar(&a.wait, "wait", false, "Wait for the transaction to be confirmed")
}

// Run executes cmd with args and returns the process exit status.
func (a *App) Run(cmd *cobra.Command, args []string) int {
	cmd.SetArgs(positionalArgs(cmd, args))
	cmd.SetOut(a.Stdout)
	cmd.SetErr(a.Stderr)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		a.report(cmd, err)
		return 1
	}
	return 0
}

var negativeNumber = regexp.MustCompile(`^-\d`)

// positionalArgs moves the arguments from the first negative number on
// behind a "--" terminator so that "-1" reaches the command as a room ID or
// count instead of an unknown shorthand flag. Flags and their values keep
// their place.
func positionalArgs(root *cobra.Command, args []string) []string {
	target, _, err := root.Find(args)
	if err != nil || target == nil {
		target = root
	}

	var head, tail []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		negative := negativeNumber.MatchString(arg)
		switch {
		case arg == "--":
			if i+1 < len(args) {
				tail = append(tail, args[i+1:]...)
			}
			i = len(args)
		case strings.HasPrefix(arg, "-") && !negative:
			head = append(head, arg)
			if takesValue(target, arg) && i+1 < len(args) {
				i++
				head = append(head, args[i])
			}
		case negative || tail != nil:
			tail = append(tail, arg)
		default:
			head = append(head, arg)
		}
	}
	if tail == nil {
		return args
	}
	return append(append(head, "--"), tail...)
}

// takesValue reports whether the flag named by arg consumes the next argument.
func takesValue(cmd *cobra.Command, arg string) bool {
	if strings.Contains(arg, "=") {
		return false
	}
	var lookup func(*pflag.FlagSet) *pflag.Flag
	if name, ok := strings.CutPrefix(arg, "--"); ok {
		lookup = func(fs *pflag.FlagSet) *pflag.Flag { return fs.Lookup(name) }
	} else if len(arg) == 2 {
		lookup = func(fs *pflag.FlagSet) *pflag.Flag { return fs.ShorthandLookup(arg[1:]) }
	} else {
		return false
	}

	flag := lookup(cmd.Flags())
	for c := cmd; flag == nil && c != nil; c = c.Parent() {
		flag = lookup(c.PersistentFlags())
	}
	return flag != nil && flag.NoOptDefVal == ""
}

// report prints err at the CLI boundary.
func (a *App) report(cmd *cobra.Command, err error) {
	var uErr *usageError
	if errors.As(err, &uErr) {
		fmt.Fprintln(a.Stderr, uErr.Error())
		fmt.Fprint(a.Stderr, uErr.cmd.UsageString())
		return
	}
	if tErr, ok := types.IsTreasuryError(err); ok {
		fmt.Fprintf(a.Stderr, "Treasury Error: %s\n", tErr.Message)
		fmt.Fprintf(a.Stderr, "Error Code: %s\n", tErr.Code)
		return
	}
	fmt.Fprintf(a.Stderr, "Unexpected error: %v\n", err)
}

// usageError reports a wrong number of positional arguments.
type usageError struct {
	cmd *cobra.Command
	msg string
}

func (e *usageError) Error() string { return e.msg }

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return &usageError{cmd: cmd, msg: fmt.Sprintf("%s expects %d arguments, got %d", cmd.Name(), n, len(args))}
		}
		return nil
	}
}

// session holds the collaborators of a signing command.
type session struct {
	cfg     *config.Config
	logger  zerolog.Logger
	closer  io.Closer
	client  client.Client
	service treasury.Service
}

func (s *session) Close() {
	if s.client != nil {
		s.client.Close()
	}
	if s.closer != nil {
		s.closer.Close()
	}
}

// loadConfig reads and validates configuration.
func (a *App) loadConfig(requireSigner bool) (*config.Config, error) {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(requireSigner); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openSession loads configuration, logging, transport and (optionally) the wallet.
func (a *App) openSession(requireSigner bool) (*session, error) {
	cfg, err := a.loadConfig(requireSigner)
	if err != nil {
		return nil, err
	}

	opts := logging.DefaultOptions()
	opts.Level = cfg.Log.Level
	opts.Format = cfg.Log.Format
	opts.FilePath = cfg.Log.File
	logger, closer := logging.New(opts, a.Stderr)

	s := &session{cfg: cfg, logger: logger, closer: closer}

	c, err := a.NewClient(cfg.ClientConfig(logging.NewClientLogger(logger, "client")))
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("connect to %s: %w", cfg.Network, err)
	}
	s.client = c

	svcCfg, err := cfg.ServicesConfig()
	if err != nil {
		s.Close()
		return nil, err
	}

	var w wallet.Wallet
	if requireSigner {
		v4, err := cfg.LoadWallet()
		if err != nil {
			s.Close()
			return nil, err
		}
		logger.Debug().Str("wallet", v4.Address().String()).Msg("Wallet loaded")
		w = v4
	}

	svc, err := treasury.NewServiceWithLogger(c, svcCfg, w, logging.NewClientLogger(logger, "treasury"))
	if err != nil {
		s.Close()
		return nil, err
	}
	s.service = svc
	return s, nil
}

// execute prepares op and either prints it (dry run) or signs and sends it.
// summary lines are printed after a successful send.
func (a *App) execute(cmd *cobra.Command, op treasury.Operation, success string, summary [][2]string) error {
	if err := treasury.Validate(op); err != nil {
		return err
	}

	if a.dryRun {
		return a.dryRunOperation(op, summary)
	}

	s, err := a.openSession(true)
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := s.service.Submit(cmd.Context(), op)
	if err != nil {
		return err
	}

	a.println(success)
	a.printFields(summary)
	a.printFields([][2]string{
		{"Value", utils.FormatTON(res.Value) + " TON"},
		{"Seqno", fmt.Sprint(res.Seqno)},
		{"Message Hash", res.TxHash},
	})
	a.println("Transaction sent successfully")

	if !a.wait {
		return nil
	}

	a.println("Waiting for confirmation...")
	info, err := s.service.WaitForConfirmation(cmd.Context(), res)
	if err != nil {
		return err
	}
	a.printFields([][2]string{
		{"Transaction", info.TxID},
		{"Logical Time", fmt.Sprint(info.LT)},
		{"Fee", utils.FormatTON(info.Fee) + " TON"},
		{"Status", info.Status},
	})
	return nil
}

// dryRunOperation encodes op without signing or network access.
func (a *App) dryRunOperation(op treasury.Operation, summary [][2]string) error {
	cfg, err := a.loadConfig(false)
	if err != nil {
		return err
	}
	svcCfg, err := cfg.ServicesConfig()
	if err != nil {
		return err
	}
	svc, err := treasury.NewService(nil, svcCfg)
	if err != nil {
		return err
	}
	prepared, err := svc.Prepare(op)
	if err != nil {
		return err
	}

	a.println("Dry run: message not sent")
	a.printFields(summary)
	a.printFields([][2]string{
		{"Method", op.Method()},
		{"To", prepared.To.String()},
		{"Value", utils.FormatTON(prepared.Value) + " TON"},
		{"Body Hash", hexutil.Encode(prepared.Body.Hash())},
		{"Body BoC", hexutil.Encode(prepared.BodyBoC())},
	})
	return nil
}

func (a *App) println(line string) {
	fmt.Fprintln(a.Stdout, line)
}

func (a *App) printFields(fields [][2]string) {
	for _, f := range fields {
		fmt.Fprintf(a.Stdout, "%s: %s\n", f[0], f[1])
	}
}
