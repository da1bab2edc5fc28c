package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/adalkiran/webrtc-endpoint-provisioning/src/certificate"
	"github.com/adalkiran/webrtc-endpoint-provisioning/src/certtool"
	"github.com/adalkiran/webrtc-endpoint-provisioning/src/config"
	"github.com/adalkiran/webrtc-endpoint-provisioning/src/endpoint"
	"github.com/adalkiran/webrtc-endpoint-provisioning/src/logging"
	"github.com/spf13/pflag"
)

func main() {
	configFile := pflag.StringP("config", "c", "", "configuration file (default: config.yml in . or ..)")
	endpoints := pflag.IntP("endpoints", "n", 1, "number of endpoints to configure concurrently")
	maskIPs := pflag.Bool("mask-ip", false, "mask STUN and TURN addresses in the console output")
	pflag.Parse()

	os.Exit(run(*configFile, *endpoints, *maskIPs))
}

func run(configFile string, endpoints int, maskIPs bool) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Freef("", "WebRTC endpoint provisioning")
	logging.Freef("", "============================")
	logging.LineSpacer(1)

	logging.Infof(logging.ProtoAPP, "Reading configuration file...")
	node, err := config.Load(configFile)
	if err != nil {
		logging.Errorf(logging.ProtoAPP, "Configuration error: %s", err)
		return 1
	}
	settings := endpoint.ResolveTraversal(node)
	if maskIPs {
		endpoint.MaskAddresses(settings)
	}
	logging.Descf(logging.ProtoCONFIG, "Configuration content:\n%s", node.ToString())

	provisioner := certificate.NewProvisioner(certtool.ExecRunner{}, certificate.OptionsFromConfig(node)...)
	defer func() {
		if err := provisioner.Close(); err != nil {
			logging.Errorf(logging.ProtoCERT, "Cleanup failed: %s", err)
		}
	}()
	resolver := endpoint.NewResolver(provisioner)

	waitGroup := new(sync.WaitGroup)
	failures := make(chan error, endpoints)
	for i := 0; i < endpoints; i++ {
		waitGroup.Add(1)
		go func(id int) {
			defer waitGroup.Done()
			if err := configureEndpoint(ctx, resolver, node, settings, id); err != nil {
				failures <- err
			}
		}(i)
	}
	waitGroup.Wait()
	close(failures)

	status := 0
	for err := range failures {
		logging.Errorf(logging.ProtoAPP, "%s", err)
		status = 1
	}
	if status == 0 {
		logging.Infof(logging.ProtoAPP, "<u>%d</u> endpoint(s) configured", endpoints)
	}
	return status
}

func configureEndpoint(ctx context.Context, resolver *endpoint.Resolver, node config.Node, settings endpoint.TraversalSettings, id int) error {
	element := &endpoint.PionElement{}
	if err := resolver.ConfigureWith(ctx, node, settings, element); err != nil {
		return fmt.Errorf("endpoint %d: %w", id, err)
	}
	configuration, err := element.Configuration()
	if err != nil {
		return fmt.Errorf("endpoint %d: %w", id, err)
	}
	for _, server := range configuration.ICEServers {
		logging.Infof(logging.ProtoAPP, "Endpoint %d ICE server <u>%s</u>", id, server.URLs[0])
	}
	logging.Infof(logging.ProtoAPP, "Endpoint %d ready with %d certificate(s)", id, len(configuration.Certificates))
	return nil
}
