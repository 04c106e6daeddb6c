package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"proxy-admin-bot/internal/config"
	"proxy-admin-bot/internal/domain/model"
	"proxy-admin-bot/internal/domain/ports/repository"
	pg "proxy-admin-bot/internal/infra/db/postgres"
	"proxy-admin-bot/internal/infra/xray"
)

const gb = int64(1) << 30

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.Connect(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	templates := pg.NewTemplateRepo(pool)

	// If templates already exist, do nothing
	existing, err := templates.ListAll(ctx, repository.NoTX)
	if err != nil {
		log.Fatal().Err(err).Msg("list templates")
	}
	if len(existing) > 0 {
		fmt.Printf("%d templates already present. No changes.\n", len(existing))
		for _, t := range existing {
			fmt.Printf("  - %s (data=%s, days=%d)\n", t.Name, model.DataLimitText(t.DataLimit), t.ExpireDuration/86400)
		}
		return
	}

	infos, err := xray.LoadInbounds(cfg.Core.XrayConfigPath)
	if err != nil {
		log.Fatal().Err(err).Msg("xray config")
	}
	all := model.Inbounds{}
	for _, in := range infos {
		all[in.Protocol] = append(all[in.Protocol], in.Tag)
	}

	seed := []struct {
		Name   string
		Data   int64
		Days   int64
		Prefix string
	}{
		{"Trial", 2 * gb, 3, "trial_"},
		{"Monthly 50GB", 50 * gb, 30, ""},
		{"Quarterly 200GB", 200 * gb, 90, ""},
		{"Unlimited", 0, 30, "vip_"},
	}

	for _, s := range seed {
		t, err := model.NewUserTemplate(s.Name, s.Data, s.Days*86400, s.Prefix, "", all)
		if err != nil {
			log.Fatal().Err(err).Str("template", s.Name).Msg("build template")
		}
		if err := templates.Save(ctx, repository.NoTX, t); err != nil {
			log.Fatal().Err(err).Str("template", s.Name).Msg("save template")
		}
		fmt.Printf("seeded: %s (id=%d, data=%s, days=%d)\n", t.Name, t.ID, model.DataLimitText(t.DataLimit), s.Days)
	}

	fmt.Println("✅ Seeding complete.")
}
