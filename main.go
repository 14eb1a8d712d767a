package main

import (
	"fmt"
	"os"

	general_i "github.com/beka-birhanu/vinom-common/interfaces/general"
	logger "github.com/beka-birhanu/vinom-common/log"
	"github.com/lightcycle-arena/match-server/api"
	"github.com/lightcycle-arena/match-server/config"
	"github.com/lightcycle-arena/match-server/service"
	"github.com/lightcycle-arena/match-server/service/i"
)

// Global variables for dependencies
var (
	hub          i.Broadcaster
	spectatorAPI *api.Server
	lobby        *service.Lobby
	match        i.MatchServer
	appLogger    general_i.Logger
)

func initSpectatorAPI() {
	hub = service.NewHub()

	apiLogger, err := logger.New("SPECTATOR", config.ColorCyan, os.Stdout)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating spectator API logger: %v", err))
		os.Exit(1)
	}
	spectatorAPI = api.New(hub, apiLogger)

	go func() {
		if err := spectatorAPI.Start(config.Envs.VisualizerAddr); err != nil {
			appLogger.Error(fmt.Sprintf("Serving spectator API: %v", err))
			os.Exit(1)
		}
	}()
	appLogger.Info("Spectator API initialized")
}

func initMatch() {
	lobbyLogger, err := logger.New("LOBBY", config.ColorBlue, os.Stdout)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating lobby logger: %v", err))
		os.Exit(1)
	}
	lobby, err = service.NewLobby(&service.LobbyConfig{
		Addr:        config.Envs.GameAddr,
		NameTimeout: config.Envs.TurnTimeout,
		Logger:      lobbyLogger,
	})
	if err != nil {
		appLogger.Error(fmt.Sprintf("Opening player listener: %v", err))
		os.Exit(1)
	}

	red, blue, err := lobby.SeatPlayers()
	if err != nil {
		appLogger.Error(fmt.Sprintf("Seating players: %v", err))
		os.Exit(1)
	}

	matchLogger, err := logger.New("MATCH", config.ColorYellow, os.Stdout)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating match logger: %v", err))
		os.Exit(1)
	}
	m, err := service.NewMatch(&service.MatchConfig{
		Red:         red,
		Blue:        blue,
		TurnTimeout: config.Envs.TurnTimeout,
		ExtraDelay:  config.Envs.ExtraDelay,
		Logger:      matchLogger,
	})
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating match: %v", err))
		os.Exit(1)
	}
	match = m
	appLogger.Info("Match initialized")
}

// relaySnapshots bridges the match's snapshot channels to the spectator
// broadcaster. It returns once the terminal snapshot has been published.
func relaySnapshots(m i.MatchServer, b i.Broadcaster) {
	for {
		select {
		case payload := <-m.StateChan():
			b.Publish(payload)
		case payload, ok := <-m.EndChan():
			if ok {
				b.Publish(payload)
			}
			return
		}
	}
}

func main() {
	appLogger, _ = logger.New("APP", config.ColorGreen, os.Stdout)
	initSpectatorAPI()
	initMatch()
	defer match.Stop()

	relayDone := make(chan struct{})
	go func() {
		relaySnapshots(match, hub)
		close(relayDone)
	}()

	if err := match.Start(); err != nil {
		appLogger.Error(fmt.Sprintf("Match aborted: %v", err))
		os.Exit(1)
	}
	<-relayDone
	appLogger.Info("Game ended normally")
}
