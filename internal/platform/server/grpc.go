// Package server builds the HTTP and gRPC servers from configuration.
package server

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"
)

// RegistrationFunc registers a grpc service with the server.
type RegistrationFunc func(*grpc.Server)

// NewGRPCServer creates a new gRPC server instance with optional reflection and service registration.
func NewGRPCServer(enableReflection bool, opts []grpc.ServerOption, registerFunc ...RegistrationFunc) *grpc.Server {
	grpcServer := grpc.NewServer(opts...)

	for _, regFunc := range registerFunc {
		regFunc(grpcServer)
	}
	if enableReflection {
		reflection.Register(grpcServer)
	}

	return grpcServer
}
