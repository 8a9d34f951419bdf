package main

import (
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"

	"github.com/md-rashed-zaman/bookwindow/libs/config"
	"github.com/md-rashed-zaman/bookwindow/libs/grpcx"
	"github.com/md-rashed-zaman/bookwindow/services/window-service/internal/grpcserver"
)

type grpcServer struct {
	srv    *grpc.Server
	health *health.Server
	logger *slog.Logger
}

func startGrpcServer(logger *slog.Logger, checker grpcserver.Checker) (*grpcServer, error) {
	port, err := config.Port("GRPC_PORT", "9090")
	if err != nil {
		return nil, err
	}
	lis, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return nil, err
	}

	srv := grpc.NewServer(grpcx.ServerOptions(logger)...)
	hs := grpcserver.Register(srv, grpcserver.NewServer(checker, logger))

	go func() {
		logger.Info("grpc server starting", "addr", lis.Addr().String())
		if err := srv.Serve(lis); err != nil {
			logger.Error("grpc server error", "err", err)
		}
	}()
	return &grpcServer{srv: srv, health: hs, logger: logger}, nil
}

func (g *grpcServer) stop() {
	g.health.Shutdown()
	g.srv.GracefulStop()
	g.logger.Info("grpc server stopped")
}
