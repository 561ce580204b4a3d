package main

import (
	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"github.com/emotegov/emotegov/proposals"
)

type Handler func(s *discordgo.Session, i *discordgo.InteractionCreate) error

// commandTable maps command names to handlers. All commands are served
// by the proposals handler; the table exists so registration and
// dispatch stay in lockstep.
func commandTable(h *proposals.Handler) (map[string]Handler, []*discordgo.ApplicationCommand) {
	defs := h.Commands()
	handlers := make(map[string]Handler, len(defs))
	for _, c := range defs {
		handlers[c.Name] = func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
			return h.Handle(s, i)
		}
	}
	return handlers, defs
}

func interactionHandler(handlers map[string]Handler, log *logrus.Entry) func(*discordgo.Session, *discordgo.InteractionCreate) {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		if i.Type != discordgo.InteractionApplicationCommand {
			return
		}
		name := i.ApplicationCommandData().Name
		h, ok := handlers[name]
		if !ok {
			return
		}
		if err := h(s, i); err != nil {
			log.WithError(err).WithField("command", name).Error("handler failed")
		}
	}
}
