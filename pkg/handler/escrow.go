package handler

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/AccelByte/extend-game-escrow/pkg/common"
	"github.com/AccelByte/extend-game-escrow/pkg/escrow"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// maxTimeLimitSeconds is the largest time limit that fits a time.Duration.
const maxTimeLimitSeconds = math.MaxInt64 / int64(time.Second)

// PrincipalMetadataKey carries the caller address. Authenticating it is left
// to the gateway in front of this service.
const PrincipalMetadataKey = "x-escrow-principal"

// Escrow serves the escrow.v1.Escrow gRPC service on top of an engine.
type Escrow struct {
	engine *escrow.Engine
}

// NewEscrow creates a new escrow service handler
func NewEscrow(engine *escrow.Engine) *Escrow {
	return &Escrow{engine: engine}
}

func principal(ctx context.Context) (escrow.Address, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "missing metadata")
	}
	values := md.Get(PrincipalMetadataKey)
	if len(values) == 0 || values[0] == "" {
		return "", status.Errorf(codes.Unauthenticated, "missing %s", PrincipalMetadataKey)
	}
	return escrow.Address(values[0]), nil
}

// toStatus maps engine errors onto gRPC status codes.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	if escrow.IsUnauthorized(err) {
		return status.Error(codes.PermissionDenied, err.Error())
	}
	var te *escrow.TransferError
	if errors.As(err, &te) {
		return status.Error(codes.Unavailable, err.Error())
	}

	kind, ok := escrow.KindOf(err)
	if !ok {
		return status.Error(codes.Internal, err.Error())
	}
	switch kind {
	case escrow.KindGameNotFound:
		return status.Error(codes.NotFound, err.Error())
	case escrow.KindInvalidGameParameters, escrow.KindInvalidCommission, escrow.KindInvalidTeam:
		return status.Error(codes.InvalidArgument, err.Error())
	case escrow.KindPlayerAlreadyJoined:
		return status.Error(codes.AlreadyExists, err.Error())
	case escrow.KindNotGameCreator:
		return status.Error(codes.PermissionDenied, err.Error())
	case escrow.KindInsufficientBalance:
		return status.Error(codes.FailedPrecondition, err.Error())
	case escrow.KindExceedsLimit, escrow.KindCooldownActive:
		return status.Error(codes.ResourceExhausted, err.Error())
	case escrow.KindEnforcedPause:
		return status.Error(codes.Unavailable, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// call runs one RPC inside a traced scope, resolving the caller first.
func call[Resp any](ctx context.Context, name string, fn func(ctx context.Context, caller escrow.Address) (*Resp, error)) (*Resp, error) {
	scope := common.GetScopeFromContext(ctx, "Escrow."+name)
	defer scope.Finish()

	caller, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	scope.TraceTag("principal", string(caller))

	resp, err := fn(scope.Ctx, caller)
	if err != nil {
		scope.TraceError(err)
		scope.Log.Warnf("%s rejected for %s: %v", name, caller, err)
		return nil, toStatus(err)
	}
	return resp, nil
}

func (s *Escrow) CreateGame(ctx context.Context, req *CreateGameRequest) (*CreateGameResponse, error) {
	return call(ctx, "CreateGame", func(ctx context.Context, caller escrow.Address) (*CreateGameResponse, error) {
		if req.TimeLimitSeconds > maxTimeLimitSeconds {
			return nil, status.Errorf(codes.InvalidArgument, "time limit of %d seconds is out of range", req.TimeLimitSeconds)
		}
		id, err := s.engine.CreateGame(caller, escrow.GameParams{
			Token:       req.Token,
			Mode:        req.Mode,
			EntryFee:    req.EntryFee,
			MaxPlayers:  req.MaxPlayers,
			NumTeams:    req.NumTeams,
			TimeLimit:   time.Duration(req.TimeLimitSeconds) * time.Second,
			CreatorBps:  req.CreatorBps,
			PlatformBps: req.PlatformBps,
		})
		if err != nil {
			return nil, err
		}
		return &CreateGameResponse{GameID: id}, nil
	})
}

func (s *Escrow) JoinGame(ctx context.Context, req *JoinGameRequest) (*Empty, error) {
	return call(ctx, "JoinGame", func(ctx context.Context, caller escrow.Address) (*Empty, error) {
		return &Empty{}, s.engine.JoinGame(ctx, caller, req.GameID, req.Team)
	})
}

func (s *Escrow) ReportGameResult(ctx context.Context, req *ReportGameResultRequest) (*ReportGameResultResponse, error) {
	return call(ctx, "ReportGameResult", func(ctx context.Context, caller escrow.Address) (*ReportGameResultResponse, error) {
		split, err := s.engine.ReportGameResult(caller, req.GameID, req.Winners)
		if err != nil {
			return nil, err
		}
		return &ReportGameResultResponse{Split: split}, nil
	})
}

func (s *Escrow) ReportGameTimeout(ctx context.Context, req *GameRequest) (*Empty, error) {
	return call(ctx, "ReportGameTimeout", func(ctx context.Context, caller escrow.Address) (*Empty, error) {
		return &Empty{}, s.engine.ReportGameTimeout(caller, req.GameID)
	})
}

func (s *Escrow) CancelGame(ctx context.Context, req *CancelGameRequest) (*Empty, error) {
	return call(ctx, "CancelGame", func(ctx context.Context, caller escrow.Address) (*Empty, error) {
		return &Empty{}, s.engine.CancelGame(caller, req.GameID, req.Reason)
	})
}

func (s *Escrow) EmergencyRefund(ctx context.Context, req *GameRequest) (*Empty, error) {
	return call(ctx, "EmergencyRefund", func(ctx context.Context, caller escrow.Address) (*Empty, error) {
		return &Empty{}, s.engine.EmergencyRefund(caller, req.GameID)
	})
}

func (s *Escrow) Withdraw(ctx context.Context, req *WithdrawRequest) (*WithdrawResponse, error) {
	return call(ctx, "Withdraw", func(ctx context.Context, caller escrow.Address) (*WithdrawResponse, error) {
		var (
			tr  escrow.Transfer
			err error
		)
		switch req.Class {
		case "", escrow.ClassPlayer.String():
			tr, err = s.engine.WithdrawBalance(ctx, caller, req.Token)
		case escrow.ClassCreator.String():
			tr, err = s.engine.WithdrawCreatorEarnings(ctx, caller, req.Token)
		case escrow.ClassPlatform.String():
			tr, err = s.engine.WithdrawPlatformRevenue(ctx, caller, req.Token, req.To)
		default:
			return nil, status.Errorf(codes.InvalidArgument, "unknown balance class %q", req.Class)
		}
		if err != nil {
			return nil, err
		}
		return &WithdrawResponse{Transfers: []escrow.Transfer{tr}}, nil
	})
}

func (s *Escrow) WithdrawAll(ctx context.Context, _ *Empty) (*WithdrawResponse, error) {
	return call(ctx, "WithdrawAll", func(ctx context.Context, caller escrow.Address) (*WithdrawResponse, error) {
		transfers, err := s.engine.WithdrawAllBalances(ctx, caller)
		if err != nil {
			return nil, err
		}
		return &WithdrawResponse{Transfers: transfers}, nil
	})
}

func (s *Escrow) GetGame(ctx context.Context, req *GameRequest) (*GameResponse, error) {
	return call(ctx, "GetGame", func(ctx context.Context, _ escrow.Address) (*GameResponse, error) {
		g, err := s.engine.GetGame(req.GameID)
		if err != nil {
			return nil, err
		}
		return &GameResponse{Game: g}, nil
	})
}

func (s *Escrow) ListGames(ctx context.Context, req *ListGamesRequest) (*ListGamesResponse, error) {
	return call(ctx, "ListGames", func(ctx context.Context, caller escrow.Address) (*ListGamesResponse, error) {
		var games []escrow.Game
		switch req.Filter {
		case "", "waiting":
			games = s.engine.GetWaitingGames()
		case "active":
			games = s.engine.GetActiveGames()
		case "creator":
			creator := req.Creator
			if creator == "" {
				creator = caller
			}
			games = s.engine.GetCreatorGames(creator)
		default:
			return nil, status.Errorf(codes.InvalidArgument, "unknown filter %q", req.Filter)
		}
		return &ListGamesResponse{Games: games}, nil
	})
}

func (s *Escrow) GetPlayerBalances(ctx context.Context, req *BalancesRequest) (*BalancesResponse, error) {
	return call(ctx, "GetPlayerBalances", func(ctx context.Context, caller escrow.Address) (*BalancesResponse, error) {
		account := req.Account
		if account == "" {
			account = caller
		}
		return &BalancesResponse{
			Player:     s.engine.GetPlayerBalances(account),
			Creator:    s.engine.GetCreatorEarnings(account),
			Reputation: s.engine.Reputation(account),
		}, nil
	})
}

func (s *Escrow) GetSupportedTokens(ctx context.Context, _ *Empty) (*SupportedTokensResponse, error) {
	return call(ctx, "GetSupportedTokens", func(ctx context.Context, _ escrow.Address) (*SupportedTokensResponse, error) {
		resp := &SupportedTokensResponse{
			TotalTVL:   s.engine.TotalValueLocked(),
			MaxTVL:     s.engine.MaxTVLLimit(),
			Paused:     s.engine.Paused(),
			GameLimits: s.engine.GetGameLimits(),
		}
		for _, t := range s.engine.GetSupportedTokens() {
			cfg, _ := s.engine.GetTokenConfig(t)
			resp.Tokens = append(resp.Tokens, TokenInfo{
				Token:           t,
				MaxTokenLimit:   cfg.MaxTokenLimit,
				ValueLocked:     s.engine.TokenValueLocked(t),
				PlatformRevenue: s.engine.GetPlatformRevenue(t),
			})
		}
		return resp, nil
	})
}

func (s *Escrow) AddAllowedToken(ctx context.Context, req *TokenLimitRequest) (*Empty, error) {
	return call(ctx, "AddAllowedToken", func(ctx context.Context, caller escrow.Address) (*Empty, error) {
		return &Empty{}, s.engine.AddAllowedToken(caller, req.Token, req.Limit)
	})
}

func (s *Escrow) RemoveAllowedToken(ctx context.Context, req *TokenLimitRequest) (*Empty, error) {
	return call(ctx, "RemoveAllowedToken", func(ctx context.Context, caller escrow.Address) (*Empty, error) {
		return &Empty{}, s.engine.RemoveAllowedToken(caller, req.Token)
	})
}

func (s *Escrow) UpdateTokenLimit(ctx context.Context, req *TokenLimitRequest) (*Empty, error) {
	return call(ctx, "UpdateTokenLimit", func(ctx context.Context, caller escrow.Address) (*Empty, error) {
		return &Empty{}, s.engine.UpdateTokenLimit(caller, req.Token, req.Limit)
	})
}

func (s *Escrow) UpdateTVLLimits(ctx context.Context, req *TVLLimitRequest) (*Empty, error) {
	return call(ctx, "UpdateTVLLimits", func(ctx context.Context, caller escrow.Address) (*Empty, error) {
		return &Empty{}, s.engine.UpdateTVLLimits(caller, req.Limit)
	})
}

func (s *Escrow) UpdateGameLimits(ctx context.Context, req *GameLimitsRequest) (*Empty, error) {
	return call(ctx, "UpdateGameLimits", func(ctx context.Context, caller escrow.Address) (*Empty, error) {
		return &Empty{}, s.engine.UpdateGameLimits(caller, req.Limits)
	})
}

func (s *Escrow) Pause(ctx context.Context, _ *Empty) (*Empty, error) {
	return call(ctx, "Pause", func(ctx context.Context, caller escrow.Address) (*Empty, error) {
		return &Empty{}, s.engine.Pause(caller)
	})
}

func (s *Escrow) Unpause(ctx context.Context, _ *Empty) (*Empty, error) {
	return call(ctx, "Unpause", func(ctx context.Context, caller escrow.Address) (*Empty, error) {
		return &Empty{}, s.engine.Unpause(caller)
	})
}

func (s *Escrow) GrantRole(ctx context.Context, req *RoleRequest) (*Empty, error) {
	return call(ctx, "GrantRole", func(ctx context.Context, caller escrow.Address) (*Empty, error) {
		role, err := escrow.ParseRole(req.Role)
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		return &Empty{}, s.engine.GrantRole(caller, req.Account, role)
	})
}

func (s *Escrow) RevokeRole(ctx context.Context, req *RoleRequest) (*Empty, error) {
	return call(ctx, "RevokeRole", func(ctx context.Context, caller escrow.Address) (*Empty, error) {
		role, err := escrow.ParseRole(req.Role)
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		return &Empty{}, s.engine.RevokeRole(caller, req.Account, role)
	})
}

func (s *Escrow) EmergencyTokenRecovery(ctx context.Context, req *TokenRecoveryRequest) (*Empty, error) {
	return call(ctx, "EmergencyTokenRecovery", func(ctx context.Context, caller escrow.Address) (*Empty, error) {
		if err := s.engine.EmergencyTokenRecovery(ctx, caller, req.Token, req.To, req.Amount); err != nil {
			return nil, err
		}
		logrus.Warnf("emergency token recovery of %d %s to %s by %s", req.Amount, req.Token, req.To, caller)
		return &Empty{}, nil
	})
}
