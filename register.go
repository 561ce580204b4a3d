package main

import (
	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

func registerCommands(s *discordgo.Session, appID, guildID string, defs []*discordgo.ApplicationCommand, log *logrus.Entry) error {
	log.Info("registering commands")

	for _, c := range defs {
		cmd, err := s.ApplicationCommandCreate(appID, guildID, c)
		if err != nil {
			return err
		}
		scope := "global"
		if cmd.GuildID != "" {
			scope = cmd.GuildID
		}
		log.WithFields(logrus.Fields{"command": cmd.Name, "id": cmd.ID, "scope": scope}).Info("command added")
	}

	log.Info("done registering commands")
	return nil
}

func cleanupCommands(s *discordgo.Session, appID, guildID string, log *logrus.Entry) error {
	log.Info("cleaning up commands")

	guildIDs := []string{guildID}
	if guildID == "" {
		guilds, err := s.UserGuilds(200, "", "", false)
		if err != nil {
			return err
		}
		for _, g := range guilds {
			guildIDs = append(guildIDs, g.ID)
		}
	}

	for _, guildID := range guildIDs {
		cmds, err := s.ApplicationCommands(appID, guildID)
		if err != nil {
			return err
		}
		for _, cmd := range cmds {
			if err := s.ApplicationCommandDelete(cmd.ApplicationID, cmd.GuildID, cmd.ID); err != nil {
				return err
			}
			log.WithFields(logrus.Fields{"command": cmd.Name, "id": cmd.ID, "guild": cmd.GuildID}).Info("command deleted")
		}
	}

	log.Info("done cleaning up commands")
	return nil
}
