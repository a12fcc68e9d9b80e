// shieldedpay-cli is a thin command-line wrapper around the shielded
// client core: init-wallet, address, shield, transfer, unshield, balance,
// and sync. It follows the teacher daemon's flag-based Config + run()
// pattern (cmd/ccoind/main.go) and logs through logrus rather than raw
// fmt.Println, matching the rest of this core's ambient logging.
package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/shieldedpay/core/internal/address"
	"github.com/shieldedpay/core/internal/client"
	"github.com/shieldedpay/core/internal/field"
	"github.com/shieldedpay/core/internal/storage"
)

const version = "0.1.0"

// initTimeout bounds Initialize's Groth16 setup pass when driven from the CLI.
const initTimeout = 120 * time.Second

func main() {
	log := logrus.StandardLogger()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Warn("interrupted, shutting down")
		cancel()
	}()

	if err := dispatch(ctx, log, os.Args[1], os.Args[2:]); err != nil {
		log.WithError(err).Error("command failed")
		os.Exit(1)
	}
}

func dispatch(ctx context.Context, log *logrus.Logger, command string, args []string) error {
	switch command {
	case "version":
		fmt.Printf("shieldedpay-cli v%s\n", version)
		return nil
	case "help":
		printUsage()
		return nil
	case "init-wallet":
		return cmdInitWallet(ctx, log, args)
	case "address":
		return cmdAddress(ctx, log, args)
	case "shield":
		return cmdShield(ctx, log, args)
	case "transfer":
		return cmdTransfer(ctx, log, args)
	case "unshield":
		return cmdUnshield(ctx, log, args)
	case "balance":
		return cmdBalance(ctx, log, args)
	case "sync":
		return cmdSync(ctx, log, args)
	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", command)
	}
}

func printUsage() {
	fmt.Println("shieldedpay-cli - shielded pool wallet core")
	fmt.Println()
	fmt.Println("Usage: shieldedpay-cli <command> [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  init-wallet --seed <mnemonic>       derive keys and print the zk address")
	fmt.Println("  address --seed <mnemonic>           print the zk address for a seed")
	fmt.Println("  shield --seed <mnemonic> --amount N move N into the pool")
	fmt.Println("  transfer --seed <m> --to <addr> --amount N   internal shielded transfer")
	fmt.Println("  unshield --seed <m> --amount N       exit the pool")
	fmt.Println("  balance --seed <mnemonic>            report local shielded balance")
	fmt.Println("  sync --seed <mnemonic>               resync local tree with the chain")
	fmt.Println()
	fmt.Println("Persistence flags (any command):")
	fmt.Println("  --postgres                 persist wallet state in PostgreSQL instead of memory-only")
	fmt.Println("  --pg-host, --pg-port, --pg-user, --pg-password, --pg-database")
}

// storeFlags registers the persistence flags shared by every subcommand.
// By default a command's wallet state lives only for the lifetime of the
// process (client.NewMemoryStore); passing --postgres switches to
// internal/storage.PostgresStore so notes and the tree survive across
// invocations.
type storeFlags struct {
	postgres *bool
	host     *string
	port     *int
	user     *string
	password *string
	database *string
}

func registerStoreFlags(fs *flag.FlagSet) *storeFlags {
	def := storage.DefaultConfig()
	return &storeFlags{
		postgres: fs.Bool("postgres", false, "persist wallet state in PostgreSQL instead of memory-only"),
		host:     fs.String("pg-host", def.Host, "PostgreSQL host"),
		port:     fs.Int("pg-port", def.Port, "PostgreSQL port"),
		user:     fs.String("pg-user", def.User, "PostgreSQL user"),
		password: fs.String("pg-password", def.Password, "PostgreSQL password"),
		database: fs.String("pg-database", def.Database, "PostgreSQL database"),
	}
}

// resolve opens the configured WalletStateStore. The returned close func
// must be called once the caller is done with the store (a no-op for the
// in-memory default).
func (sf *storeFlags) resolve(ctx context.Context) (client.WalletStateStore, func(), error) {
	if !*sf.postgres {
		return client.NewMemoryStore(), func() {}, nil
	}

	cfg := storage.DefaultConfig()
	cfg.Host = *sf.host
	cfg.Port = *sf.port
	cfg.User = *sf.user
	cfg.Password = *sf.password
	cfg.Database = *sf.database

	store, err := storage.NewPostgresStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return store, store.Close, nil
}

// walletID derives a stable, non-secret identifier for a seed's wallet
// state rows: the first 8 bytes of sha256(seed), hex-encoded. It is not
// itself sensitive (unlike the seed or spending key) so it is safe to use
// as a primary-key column.
func walletID(seed []byte) string {
	sum := sha256.Sum256(seed)
	return hex.EncodeToString(sum[:8])
}

// newLocalClient wires a ShieldedClient against the in-process loopback
// chain (loopback.go): a single-process stand-in for a host-chain RPC
// connection, useful for exercising the core without a deployed on-chain
// program. A real deployment injects its own types.ChainConnection and
// types.WalletAdapter here instead. Any wallet state previously persisted
// to store under this seed's walletID is restored before returning.
func newLocalClient(log *logrus.Logger, seed []byte, store client.WalletStateStore) (*client.ShieldedClient, *LoopbackChain, error) {
	chain := NewLoopbackChain()
	wallet := NewLoopbackWallet(seed)

	c := client.NewClient(client.Config{
		Connection: chain,
		Wallet:     wallet,
		TokenMint:  field.Zero(),
		Logger:     log,
	})

	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()
	if err := c.Initialize(ctx, seed); err != nil {
		return nil, nil, err
	}
	if err := c.Restore(ctx, store, walletID(seed)); err != nil {
		return nil, nil, err
	}
	return c, chain, nil
}

func seedFlag(fs *flag.FlagSet) *string {
	return fs.String("seed", "", "BIP-39 mnemonic or raw seed material")
}

func requireSeed(seed string) ([]byte, error) {
	if seed == "" {
		return nil, fmt.Errorf("--seed is required")
	}
	return []byte(seed), nil
}

func cmdInitWallet(ctx context.Context, log *logrus.Logger, args []string) error {
	fs := flag.NewFlagSet("init-wallet", flag.ExitOnError)
	seedStr := seedFlag(fs)
	sf := registerStoreFlags(fs)
	fs.Parse(args)

	seed, err := requireSeed(*seedStr)
	if err != nil {
		return err
	}

	store, closeStore, err := sf.resolve(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	c, _, err := newLocalClient(log, seed, store)
	if err != nil {
		return err
	}
	log.WithField("state", c.State()).Info("wallet initialized")
	return printAddress(c)
}

func cmdAddress(ctx context.Context, log *logrus.Logger, args []string) error {
	fs := flag.NewFlagSet("address", flag.ExitOnError)
	seedStr := seedFlag(fs)
	sf := registerStoreFlags(fs)
	fs.Parse(args)

	seed, err := requireSeed(*seedStr)
	if err != nil {
		return err
	}

	store, closeStore, err := sf.resolve(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	c, _, err := newLocalClient(log, seed, store)
	if err != nil {
		return err
	}
	return printAddress(c)
}

func printAddress(c *client.ShieldedClient) error {
	a, err := c.Address()
	if err != nil {
		return err
	}
	fmt.Println(address.Encode(a))
	return nil
}

func cmdShield(ctx context.Context, log *logrus.Logger, args []string) error {
	fs := flag.NewFlagSet("shield", flag.ExitOnError)
	seedStr := seedFlag(fs)
	amount := fs.Uint64("amount", 0, "amount to shield")
	sf := registerStoreFlags(fs)
	fs.Parse(args)

	seed, err := requireSeed(*seedStr)
	if err != nil {
		return err
	}

	store, closeStore, err := sf.resolve(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	c, _, err := newLocalClient(log, seed, store)
	if err != nil {
		return err
	}

	result, err := c.Shield(ctx, *amount)
	if err != nil {
		return err
	}
	if err := c.Persist(ctx, store, walletID(seed)); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"signature": result.Signature,
		"balance":   c.ShieldedBalance(),
	}).Info("shield confirmed")
	return nil
}

func cmdTransfer(ctx context.Context, log *logrus.Logger, args []string) error {
	fs := flag.NewFlagSet("transfer", flag.ExitOnError)
	seedStr := seedFlag(fs)
	to := fs.String("to", "", "recipient zk address")
	amount := fs.Uint64("amount", 0, "amount to transfer")
	sf := registerStoreFlags(fs)
	fs.Parse(args)

	seed, err := requireSeed(*seedStr)
	if err != nil {
		return err
	}
	if *to == "" {
		return fmt.Errorf("--to is required")
	}
	recipient, err := address.Decode(*to)
	if err != nil {
		return err
	}

	store, closeStore, err := sf.resolve(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	c, _, err := newLocalClient(log, seed, store)
	if err != nil {
		return err
	}

	result, err := c.Transfer(ctx, recipient, *amount)
	if err != nil {
		return err
	}
	if err := c.Persist(ctx, store, walletID(seed)); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"signature": result.Signature,
		"balance":   c.ShieldedBalance(),
	}).Info("transfer confirmed")
	return nil
}

func cmdUnshield(ctx context.Context, log *logrus.Logger, args []string) error {
	fs := flag.NewFlagSet("unshield", flag.ExitOnError)
	seedStr := seedFlag(fs)
	amount := fs.Uint64("amount", 0, "amount to unshield")
	sf := registerStoreFlags(fs)
	fs.Parse(args)

	seed, err := requireSeed(*seedStr)
	if err != nil {
		return err
	}

	store, closeStore, err := sf.resolve(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	c, _, err := newLocalClient(log, seed, store)
	if err != nil {
		return err
	}

	result, err := c.Unshield(ctx, *amount)
	if err != nil {
		return err
	}
	if err := c.Persist(ctx, store, walletID(seed)); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"signature": result.Signature,
		"balance":   c.ShieldedBalance(),
	}).Info("unshield confirmed")
	return nil
}

func cmdBalance(ctx context.Context, log *logrus.Logger, args []string) error {
	fs := flag.NewFlagSet("balance", flag.ExitOnError)
	seedStr := seedFlag(fs)
	sf := registerStoreFlags(fs)
	fs.Parse(args)

	seed, err := requireSeed(*seedStr)
	if err != nil {
		return err
	}

	store, closeStore, err := sf.resolve(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	c, _, err := newLocalClient(log, seed, store)
	if err != nil {
		return err
	}
	fmt.Printf("shielded balance: %d (%d notes)\n", c.ShieldedBalance(), c.NoteCount())
	return nil
}

func cmdSync(ctx context.Context, log *logrus.Logger, args []string) error {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	seedStr := seedFlag(fs)
	sf := registerStoreFlags(fs)
	fs.Parse(args)

	seed, err := requireSeed(*seedStr)
	if err != nil {
		return err
	}

	store, closeStore, err := sf.resolve(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	c, _, err := newLocalClient(log, seed, store)
	if err != nil {
		return err
	}
	if err := c.Sync(ctx); err != nil {
		return err
	}
	if err := c.Persist(ctx, store, walletID(seed)); err != nil {
		return err
	}
	log.Info("sync complete")
	return nil
}
