package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/emotegov/emotegov/assets"
	"github.com/emotegov/emotegov/config"
	"github.com/emotegov/emotegov/discord"
	"github.com/emotegov/emotegov/poll"
	"github.com/emotegov/emotegov/proposals"
	"github.com/emotegov/emotegov/scheduler"
)

var (
	token     = os.Getenv("BOT_TOKEN")
	pubKeyHex = os.Getenv("INTERACTIONS_PUBKEY")

	configPath = flag.String("config", "", "path to the YAML configuration file; built-in defaults apply when empty")
	register   = flag.Bool("register", false, "register bot commands with discord; add the -cleanup flag to first remove any old commands")
	cleanup    = flag.Bool("cleanup", false, "when running with -register, also first remove any previously registered commands")
)

func main() {
	// A .env file is a development convenience; absence is normal.
	_ = godotenv.Load()
	flag.Parse()

	log := logrus.StandardLogger()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if lvl, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		log.SetLevel(lvl)
	}

	if err := run(logrus.NewEntry(log)); err != nil {
		log.Fatal(err)
	}
}

func run(log *logrus.Entry) error {
	if token == "" {
		return errors.New("BOT_TOKEN not set")
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		return errors.Wrap(err, "loading configuration")
	}

	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return err
	}

	me, err := s.User("@me")
	if err != nil {
		return errors.Wrap(err, "identifying bot user")
	}

	store, err := poll.NewFSStore(cfg.StateDir)
	if err != nil {
		return errors.Wrap(err, "opening poll store")
	}

	col := discord.NewCollection(s)
	handler := proposals.New(cfg, store, col, log)
	handlers, defs := commandTable(handler)

	if *register {
		guildID := os.Getenv("GUILD_ID")
		if *cleanup {
			if err := cleanupCommands(s, me.ID, guildID, log); err != nil {
				return err
			}
		}
		return registerCommands(s, me.ID, guildID, defs, log)
	}

	sched := scheduler.New(s, store, assets.NewApplier(col),
		assets.NewNormalizer(cfg.MaxPixelArea, cfg.MaxByteSize),
		poll.TallyConfig{
			SelfID:           me.ID,
			Privileged:       cfg.Privileged(),
			PrivilegedWeight: cfg.PrivilegedVoteWeight,
		},
		scheduler.Config{
			PollDuration:  cfg.PollDuration,
			CheckInterval: cfg.CheckInterval,
			PassThreshold: cfg.PassThreshold,
			MinimumVotes:  cfg.MinimumVotes,
			YesEmoji:      cfg.YesEmoji,
			NoEmoji:       cfg.NoEmoji,
			DigestHours:   cfg.DigestHours,
			AutoApply:     cfg.AutoApply,
		},
		clockwork.NewRealClock(), log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan struct{})
	go func() {
		sched.Run(ctx)
		close(done)
	}()

	if port := os.Getenv("PORT"); port != "" {
		// Interactions arrive over verified HTTP; the scheduler and the
		// proposal handlers only need the REST side of the session.
		pubKey, err := parsePubKey(pubKeyHex)
		if err != nil {
			return err
		}
		srv := &interactionServer{handlers: handlers, session: s, pubKey: pubKey, log: log}
		go srv.listenAndServe(port)
	} else {
		s.AddHandler(interactionHandler(handlers, log))
		if err := s.Open(); err != nil {
			return errors.Wrap(err, "opening gateway session")
		}
		defer s.Close()
	}

	log.Info("bot now connected and ready")
	<-ctx.Done()
	log.Info("shutting down, waiting for the scheduler to finish")
	<-done
	return nil
}
