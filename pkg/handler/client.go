package handler

import (
	"context"

	"github.com/AccelByte/extend-game-escrow/pkg/escrow"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// Client calls escrow.v1.Escrow using the JSON codec.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// WithPrincipal returns a context that identifies the caller as addr.
func WithPrincipal(ctx context.Context, addr escrow.Address) context.Context {
	return metadata.AppendToOutgoingContext(ctx, PrincipalMetadataKey, string(addr))
}

func invoke[Resp any](ctx context.Context, c *Client, method string, req interface{}, opts ...grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append(opts, grpc.CallContentSubtype(CodecName))
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateGame(ctx context.Context, req *CreateGameRequest, opts ...grpc.CallOption) (*CreateGameResponse, error) {
	return invoke[CreateGameResponse](ctx, c, "CreateGame", req, opts...)
}

func (c *Client) JoinGame(ctx context.Context, req *JoinGameRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c, "JoinGame", req, opts...)
}

func (c *Client) ReportGameResult(ctx context.Context, req *ReportGameResultRequest, opts ...grpc.CallOption) (*ReportGameResultResponse, error) {
	return invoke[ReportGameResultResponse](ctx, c, "ReportGameResult", req, opts...)
}

func (c *Client) ReportGameTimeout(ctx context.Context, req *GameRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c, "ReportGameTimeout", req, opts...)
}

func (c *Client) CancelGame(ctx context.Context, req *CancelGameRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c, "CancelGame", req, opts...)
}

func (c *Client) EmergencyRefund(ctx context.Context, req *GameRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c, "EmergencyRefund", req, opts...)
}

func (c *Client) Withdraw(ctx context.Context, req *WithdrawRequest, opts ...grpc.CallOption) (*WithdrawResponse, error) {
	return invoke[WithdrawResponse](ctx, c, "Withdraw", req, opts...)
}

func (c *Client) WithdrawAll(ctx context.Context, opts ...grpc.CallOption) (*WithdrawResponse, error) {
	return invoke[WithdrawResponse](ctx, c, "WithdrawAll", &Empty{}, opts...)
}

func (c *Client) GetGame(ctx context.Context, req *GameRequest, opts ...grpc.CallOption) (*GameResponse, error) {
	return invoke[GameResponse](ctx, c, "GetGame", req, opts...)
}

func (c *Client) ListGames(ctx context.Context, req *ListGamesRequest, opts ...grpc.CallOption) (*ListGamesResponse, error) {
	return invoke[ListGamesResponse](ctx, c, "ListGames", req, opts...)
}

func (c *Client) GetPlayerBalances(ctx context.Context, req *BalancesRequest, opts ...grpc.CallOption) (*BalancesResponse, error) {
	return invoke[BalancesResponse](ctx, c, "GetPlayerBalances", req, opts...)
}

func (c *Client) GetSupportedTokens(ctx context.Context, opts ...grpc.CallOption) (*SupportedTokensResponse, error) {
	return invoke[SupportedTokensResponse](ctx, c, "GetSupportedTokens", &Empty{}, opts...)
}

func (c *Client) AddAllowedToken(ctx context.Context, req *TokenLimitRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c, "AddAllowedToken", req, opts...)
}

func (c *Client) RemoveAllowedToken(ctx context.Context, req *TokenLimitRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c, "RemoveAllowedToken", req, opts...)
}

func (c *Client) UpdateTokenLimit(ctx context.Context, req *TokenLimitRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c, "UpdateTokenLimit", req, opts...)
}

func (c *Client) UpdateTVLLimits(ctx context.Context, req *TVLLimitRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c, "UpdateTVLLimits", req, opts...)
}

func (c *Client) UpdateGameLimits(ctx context.Context, req *GameLimitsRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c, "UpdateGameLimits", req, opts...)
}

func (c *Client) Pause(ctx context.Context, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c, "Pause", &Empty{}, opts...)
}

func (c *Client) Unpause(ctx context.Context, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c, "Unpause", &Empty{}, opts...)
}

func (c *Client) GrantRole(ctx context.Context, req *RoleRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c, "GrantRole", req, opts...)
}

func (c *Client) RevokeRole(ctx context.Context, req *RoleRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c, "RevokeRole", req, opts...)
}

func (c *Client) EmergencyTokenRecovery(ctx context.Context, req *TokenRecoveryRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c, "EmergencyTokenRecovery", req, opts...)
}
