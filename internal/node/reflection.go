package node

import (
	"context"
	"io"

	"google.golang.org/grpc"
	reflectionpb "google.golang.org/grpc/reflection/grpc_reflection_v1alpha"
)

// QueryReflection wraps the standard gRPC server-reflection service,
// listing the services the remote end currently serves.
type QueryReflection struct {
	conn     grpc.ClientConnInterface
	classify func(error) error
}

// ListServices returns every fully-qualified service name the node
// currently advertises via gRPC reflection.
func (q QueryReflection) ListServices(ctx context.Context) ([]string, error) {
	client := reflectionpb.NewServerReflectionClient(q.conn)
	stream, err := client.ServerReflectionInfo(ctx)
	if err != nil {
		return nil, q.classify(err)
	}
	defer stream.CloseSend()

	if err := stream.Send(&reflectionpb.ServerReflectionRequest{
		MessageRequest: &reflectionpb.ServerReflectionRequest_ListServices{},
	}); err != nil {
		return nil, q.classify(err)
	}

	resp, err := stream.Recv()
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, q.classify(err)
	}

	listResp := resp.GetListServicesResponse()
	if listResp == nil {
		return nil, nil
	}
	names := make([]string, 0, len(listResp.Service))
	for _, svc := range listResp.Service {
		names = append(names, svc.Name)
	}
	return names, nil
}
