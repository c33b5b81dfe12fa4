package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"subforge/internal/config"
	"subforge/internal/generator"
	"subforge/internal/logger"
	"subforge/internal/protocol"
	"subforge/internal/publishers"
	"subforge/internal/xray"
)

var (
	genTemplate      string
	genPort          int
	genSocksPort     int
	genFormat        string
	genPublish       []string
	genParams        map[string]string
	genListTemplates bool
)

// renderOptions selects the output document. Zero values fall back to the
// generator section of the config.
type renderOptions struct {
	format    string
	template  string
	port      int
	socksPort int
}

var generateCmd = &cobra.Command{
	Use:   "generate [ids...]",
	Short: "Render stored proxies into a configuration document",
	Long: `Render all stored proxies, or the given ids, into a mihomo/Clash config
using a named template, or into Xray outbounds with --format xray. The result
goes to stdout unless --publish names configured publishers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		gen, err := generator.New(a.cfg.Generator.TemplatesDir)
		if err != nil {
			return err
		}
		if genListTemplates {
			for _, name := range gen.Templates() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		}

		proxies, err := a.store.Proxies(args...)
		if err != nil {
			return err
		}
		if len(args) > 0 && len(proxies) < len(args) {
			logger.Log.Warnf("Only %d of %d requested proxies were found", len(proxies), len(args))
		}

		doc, err := render(gen, a.cfg, proxies, renderOptions{
			format:    genFormat,
			template:  genTemplate,
			port:      genPort,
			socksPort: genSocksPort,
		})
		if err != nil {
			return err
		}
		return publish(cmd.Context(), a.cfg, doc, genPublish, genParams)
	},
}

func render(gen *generator.Generator, cfg *config.Config, proxies []*protocol.Proxy, opts renderOptions) (string, error) {
	switch opts.format {
	case "", "yaml", "clash", "mihomo":
		template := opts.template
		if template == "" {
			template = cfg.Generator.Template
		}
		port, socksPort := cfg.Generator.MainPort, cfg.Generator.SocksPort
		if opts.port > 0 {
			port = opts.port
		}
		if opts.socksPort > 0 {
			socksPort = opts.socksPort
		}
		return gen.Generate(template, proxies, port, socksPort)
	case "xray":
		doc, skipped, err := xray.Document(proxies)
		if err != nil {
			return "", err
		}
		if len(skipped) > 0 {
			logger.Log.Warnf("No Xray outbound for %d proxies: %v", len(skipped), skipped)
		}
		return string(doc), nil
	}
	return "", fmt.Errorf("unknown format %q (want yaml or xray)", opts.format)
}

// publish hands doc to the named publishers, or prints it when none are
// named.
func publish(ctx context.Context, cfg *config.Config, doc string, names []string, overrides map[string]string) error {
	targets := []config.PublisherConfig{{Name: "stdout", Type: "stdout", Params: map[string]interface{}{}}}
	if len(names) > 0 {
		filtered := *cfg
		filtered.FilterPublishers(names)
		if len(filtered.Publishers) == 0 {
			return fmt.Errorf("no publishers matched %v", names)
		}
		targets = filtered.Publishers
	}

	var failed int
	for _, pubCfg := range targets {
		plugin, err := publishers.Get(pubCfg.Type)
		if err != nil {
			logger.Log.Warnf("Plugin not found: %v", err)
			failed++
			continue
		}
		params := fetchParams(cfg, pubCfg.Params)
		applyParams(params, overrides)

		logger.Log.Debugf("Running publisher %s (%s)", pubCfg.Name, pubCfg.Type)
		if err := plugin.Publish(ctx, doc, params); err != nil {
			logger.Log.Errorf("Publish %s failed: %v", pubCfg.Name, err)
			failed++
			continue
		}
		if pubCfg.Type != "stdout" {
			logger.Log.Infof("Published to %s", pubCfg.Name)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d publishers failed", failed, len(targets))
	}
	return nil
}

func init() {
	generateCmd.Flags().StringVarP(&genTemplate, "template", "t", "", "Template name (default from config)")
	generateCmd.Flags().IntVar(&genPort, "port", 0, "Mixed listen port (default from config)")
	generateCmd.Flags().IntVar(&genSocksPort, "socks-port", 0, "SOCKS listen port (default from config)")
	generateCmd.Flags().StringVar(&genFormat, "format", "yaml", "Output format: yaml or xray")
	generateCmd.Flags().StringSliceVar(&genPublish, "publish", nil, "Send the result to these configured publishers")
	generateCmd.Flags().StringToStringVarP(&genParams, "param", "p", nil, "Override publisher params (e.g. -p path=out.yaml)")
	generateCmd.Flags().BoolVar(&genListTemplates, "list-templates", false, "List available templates and exit")
	rootCmd.AddCommand(generateCmd)
}
