package main

import (
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

func parsePubKey(data string) (ed25519.PublicKey, error) {
	pk, err := hex.DecodeString(data)
	if err != nil {
		return nil, errors.Wrap(err, "decoding public key")
	}
	if len(pk) != ed25519.PublicKeySize {
		return nil, errors.New("invalid public key length")
	}
	return pk, nil
}

// interactionServer serves slash-command interactions over HTTP instead
// of the gateway, for deployments behind an interactions endpoint URL.
type interactionServer struct {
	handlers map[string]Handler
	session  *discordgo.Session
	pubKey   ed25519.PublicKey
	log      *logrus.Entry
}

func (srv *interactionServer) listenAndServe(port string) {
	srv.log.WithField("port", port).Info("listening for interactions")
	if err := http.ListenAndServe(":"+port, srv); err != nil {
		srv.log.WithError(err).Fatal("interactions server failed")
	}
}

func (srv *interactionServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !discordgo.VerifyInteraction(r, srv.pubKey) {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	i := &discordgo.InteractionCreate{}
	if err := json.NewDecoder(r.Body).Decode(i); err != nil {
		srv.log.WithError(err).Warn("undecodable interaction")
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if i.Type == discordgo.InteractionPing {
		w.Header().Set("Content-Type", "application/json")
		err := json.NewEncoder(w).Encode(discordgo.InteractionResponse{
			Type: discordgo.InteractionResponsePong,
		})
		if err != nil {
			srv.log.WithError(err).Warn("sending pong")
		}
		return
	}

	w.WriteHeader(http.StatusAccepted)
	go interactionHandler(srv.handlers, srv.log)(srv.session, i)
}
