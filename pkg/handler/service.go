package handler

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "escrow.v1.Escrow"

// EscrowServer is the server API of the escrow.v1.Escrow service.
type EscrowServer interface {
	CreateGame(context.Context, *CreateGameRequest) (*CreateGameResponse, error)
	JoinGame(context.Context, *JoinGameRequest) (*Empty, error)
	ReportGameResult(context.Context, *ReportGameResultRequest) (*ReportGameResultResponse, error)
	ReportGameTimeout(context.Context, *GameRequest) (*Empty, error)
	CancelGame(context.Context, *CancelGameRequest) (*Empty, error)
	EmergencyRefund(context.Context, *GameRequest) (*Empty, error)
	Withdraw(context.Context, *WithdrawRequest) (*WithdrawResponse, error)
	WithdrawAll(context.Context, *Empty) (*WithdrawResponse, error)
	GetGame(context.Context, *GameRequest) (*GameResponse, error)
	ListGames(context.Context, *ListGamesRequest) (*ListGamesResponse, error)
	GetPlayerBalances(context.Context, *BalancesRequest) (*BalancesResponse, error)
	GetSupportedTokens(context.Context, *Empty) (*SupportedTokensResponse, error)
	AddAllowedToken(context.Context, *TokenLimitRequest) (*Empty, error)
	RemoveAllowedToken(context.Context, *TokenLimitRequest) (*Empty, error)
	UpdateTokenLimit(context.Context, *TokenLimitRequest) (*Empty, error)
	UpdateTVLLimits(context.Context, *TVLLimitRequest) (*Empty, error)
	UpdateGameLimits(context.Context, *GameLimitsRequest) (*Empty, error)
	Pause(context.Context, *Empty) (*Empty, error)
	Unpause(context.Context, *Empty) (*Empty, error)
	GrantRole(context.Context, *RoleRequest) (*Empty, error)
	RevokeRole(context.Context, *RoleRequest) (*Empty, error)
	EmergencyTokenRecovery(context.Context, *TokenRecoveryRequest) (*Empty, error)
}

var _ EscrowServer = (*Escrow)(nil)

func unary[Req, Resp any](name string, fn func(EscrowServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return fn(srv.(EscrowServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + ServiceName + "/" + name,
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return fn(srv.(EscrowServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc describes escrow.v1.Escrow for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*EscrowServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("CreateGame", EscrowServer.CreateGame),
		unary("JoinGame", EscrowServer.JoinGame),
		unary("ReportGameResult", EscrowServer.ReportGameResult),
		unary("ReportGameTimeout", EscrowServer.ReportGameTimeout),
		unary("CancelGame", EscrowServer.CancelGame),
		unary("EmergencyRefund", EscrowServer.EmergencyRefund),
		unary("Withdraw", EscrowServer.Withdraw),
		unary("WithdrawAll", EscrowServer.WithdrawAll),
		unary("GetGame", EscrowServer.GetGame),
		unary("ListGames", EscrowServer.ListGames),
		unary("GetPlayerBalances", EscrowServer.GetPlayerBalances),
		unary("GetSupportedTokens", EscrowServer.GetSupportedTokens),
		unary("AddAllowedToken", EscrowServer.AddAllowedToken),
		unary("RemoveAllowedToken", EscrowServer.RemoveAllowedToken),
		unary("UpdateTokenLimit", EscrowServer.UpdateTokenLimit),
		unary("UpdateTVLLimits", EscrowServer.UpdateTVLLimits),
		unary("UpdateGameLimits", EscrowServer.UpdateGameLimits),
		unary("Pause", EscrowServer.Pause),
		unary("Unpause", EscrowServer.Unpause),
		unary("GrantRole", EscrowServer.GrantRole),
		unary("RevokeRole", EscrowServer.RevokeRole),
		unary("EmergencyTokenRecovery", EscrowServer.EmergencyTokenRecovery),
	},
	Streams: []grpc.StreamDesc{},
}

// RegisterEscrowServer registers srv on s.
func RegisterEscrowServer(s grpc.ServiceRegistrar, srv EscrowServer) {
	s.RegisterService(&ServiceDesc, srv)
}
