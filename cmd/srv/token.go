package main

import (
	"errors"
	"fmt"

	"github.com/jelajah-lab/backend/internal/entity"
	"github.com/jelajah-lab/backend/internal/model"
	"github.com/jelajah-lab/backend/pkg/enum"
	"github.com/jelajah-lab/backend/pkg/token"
	"github.com/jelajah-lab/backend/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) startToken(cctx *cli.Context) error {
	cfg := xcontext.Configs(s.ctx)
	if cfg.Auth.TokenSecret == "" {
		return errors.New("token secret is not configured")
	}

	role, err := enum.ToEnum[entity.GlobalRole](cctx.String("role"))
	if err != nil {
		return err
	}

	userID := cctx.String("user")
	engine := token.NewEngine[model.AccessToken](cfg.Auth.TokenSecret, cfg.Auth.TokenExpiration)
	tkn, err := engine.Generate(userID, model.AccessToken{ID: userID, Role: string(role)})
	if err != nil {
		return err
	}

	fmt.Println(tkn)
	return nil
}
