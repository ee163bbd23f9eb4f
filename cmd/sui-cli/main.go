package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/urfave/cli"
	"go.uber.org/zap"

	"github.com/suikit/client-sdk-go/client"
	"github.com/suikit/client-sdk-go/wallet"
)

func main() {
	app := cli.NewApp()
	app.Name = "sui-cli"
	app.Usage = "command line client for Sui full nodes"
	app.Version = "0.1.0"

	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "config, c", Usage: "path to sui client.yaml"},
		cli.StringFlag{Name: "endpoint, e", Usage: "JSON-RPC endpoint"},
		cli.StringFlag{Name: "grpc-endpoint, g", Usage: "gRPC endpoint"},
		cli.StringFlag{Name: "protocol, p", Value: "auto", Usage: "protocol: jsonrpc, grpc or auto"},
		cli.StringFlag{Name: "address, a", Usage: "active address"},
		cli.StringFlag{Name: "keystore, k", Usage: "path to sui.keystore (deploy/call)"},
		cli.IntFlag{Name: "timeout, t", Value: 30, Usage: "request timeout in seconds"},
		cli.BoolFlag{Name: "debug, d", Usage: "enable debug logging"},
	}

	app.Commands = []cli.Command{
		{
			Name:   "balance",
			Usage:  "query SUI balance of the active address",
			Action: cmdBalance,
		},
		{
			Name:      "deploy",
			Usage:     "build and publish a Move package",
			ArgsUsage: "<package-path>",
			Flags: []cli.Flag{
				cli.Uint64Flag{Name: "gas-budget", Usage: "gas budget in mists"},
			},
			Action: cmdDeploy,
		},
		{
			Name:      "call",
			Usage:     "call a Move function",
			ArgsUsage: "<package-id> <module> <function> [args...]",
			Flags: []cli.Flag{
				cli.StringSliceFlag{Name: "type-arg", Usage: "Move type argument (repeatable)"},
				cli.Uint64Flag{Name: "gas-budget", Usage: "gas budget in mists"},
			},
			Action: cmdCall,
		},
		{
			Name:      "object",
			Usage:     "query an object by id",
			ArgsUsage: "<object-id>",
			Action:    cmdObject,
		},
		{
			Name:      "tx",
			Usage:     "query a transaction by digest",
			ArgsUsage: "<digest>",
			Action:    cmdTx,
		},
		{
			Name:   "gas-price",
			Usage:  "query the current reference gas price",
			Action: cmdGasPrice,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// zapLogger 把 zap 适配为 client.Logger
type zapLogger struct {
	sugar *zap.SugaredLogger
}

func (l *zapLogger) Debug(msg string, args ...interface{}) { l.sugar.Debugw(msg, args...) }
func (l *zapLogger) Info(msg string, args ...interface{})  { l.sugar.Infow(msg, args...) }
func (l *zapLogger) Warn(msg string, args ...interface{})  { l.sugar.Warnw(msg, args...) }
func (l *zapLogger) Error(msg string, args ...interface{}) { l.sugar.Errorw(msg, args...) }

func newLogger(debug bool) (*zapLogger, error) {
	zcfg := zap.NewProductionConfig()
	if debug {
		zcfg = zap.NewDevelopmentConfig()
	}
	logger, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	return &zapLogger{sugar: logger.Sugar()}, nil
}

// configFromFlags 从全局命令行参数构建客户端配置
func configFromFlags(c *cli.Context, needSigner bool) (*client.Config, error) {
	logger, err := newLogger(c.GlobalBool("debug"))
	if err != nil {
		return nil, err
	}

	cfg := &client.Config{
		ConfigPath:      c.GlobalString("config"),
		JSONRPCEndpoint: c.GlobalString("endpoint"),
		GRPCEndpoint:    c.GlobalString("grpc-endpoint"),
		ActiveAddress:   c.GlobalString("address"),
		Protocol:        client.Protocol(c.GlobalString("protocol")),
		Timeout:         c.GlobalInt("timeout"),
		Debug:           c.GlobalBool("debug"),
		Logger:          logger,
	}

	if needSigner {
		path := c.GlobalString("keystore")
		if path == "" {
			path = wallet.DefaultKeystorePath()
		}
		signers, err := wallet.LoadKeystore(path)
		if err != nil {
			return nil, cli.NewExitError(fmt.Sprintf("load keystore: %v", err), 1)
		}
		if cfg.ActiveAddress != "" {
			signer, ok := wallet.FindSigner(signers, cfg.ActiveAddress)
			if !ok {
				return nil, cli.NewExitError(fmt.Sprintf("no key for address %s in %s", cfg.ActiveAddress, path), 1)
			}
			cfg.Signer = signer
		} else {
			cfg.Signer = signers[0]
			cfg.ActiveAddress = signers[0].Address()
		}
	}

	return cfg, nil
}

func commandContext(c *cli.Context) (context.Context, context.CancelFunc) {
	timeout := time.Duration(c.GlobalInt("timeout")) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(context.Background(), timeout)
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func cmdBalance(c *cli.Context) error {
	cfg, err := configFromFlags(c, false)
	if err != nil {
		return err
	}
	sdk, err := client.NewClient(cfg)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	defer sdk.Close()

	ctx, cancel := commandContext(c)
	defer cancel()
	return printJSON(sdk.GetAccountBalance(ctx))
}

func cmdDeploy(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.NewExitError("usage: sui-cli deploy <package-path>", 1)
	}
	cfg, err := configFromFlags(c, true)
	if err != nil {
		return err
	}
	sdk, err := client.NewClient(cfg)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	defer sdk.Close()

	ctx, cancel := commandContext(c)
	defer cancel()
	result, err := sdk.DeployContract(ctx, &client.DeployRequest{
		PackagePath: c.Args().Get(0),
		GasBudget:   c.Uint64("gas-budget"),
	})
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	return printJSON(result)
}

func cmdCall(c *cli.Context) error {
	if c.NArg() < 3 {
		return cli.NewExitError("usage: sui-cli call <package-id> <module> <function> [args...]", 1)
	}
	cfg, err := configFromFlags(c, true)
	if err != nil {
		return err
	}
	sdk, err := client.NewClient(cfg)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	defer sdk.Close()

	// 位置参数按形状解释：整数 → u64，true/false → 布尔，其余字符串原样
	var args []interface{}
	for _, raw := range c.Args()[3:] {
		args = append(args, parseCallArg(raw))
	}

	ctx, cancel := commandContext(c)
	defer cancel()
	result, err := sdk.CallContractFunction(ctx, &client.CallRequest{
		PackageID:     c.Args().Get(0),
		ModuleName:    c.Args().Get(1),
		FunctionName:  c.Args().Get(2),
		Arguments:     args,
		TypeArguments: c.StringSlice("type-arg"),
		GasBudget:     c.Uint64("gas-budget"),
	})
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	return printJSON(result)
}

func parseCallArg(raw string) interface{} {
	if raw == "true" {
		return true
	}
	if raw == "false" {
		return false
	}
	if n, err := strconv.ParseUint(raw, 10, 64); err == nil {
		return n
	}
	return raw
}

func cmdObject(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.NewExitError("usage: sui-cli object <object-id>", 1)
	}
	cfg, err := configFromFlags(c, false)
	if err != nil {
		return err
	}
	sdk, err := client.NewClient(cfg)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	defer sdk.Close()

	ctx, cancel := commandContext(c)
	defer cancel()
	info, err := sdk.GetObjectInfo(ctx, c.Args().Get(0))
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	return printJSON(info)
}

func cmdTx(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.NewExitError("usage: sui-cli tx <digest>", 1)
	}
	cfg, err := configFromFlags(c, false)
	if err != nil {
		return err
	}
	sdk, err := client.NewClient(cfg)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	defer sdk.Close()

	ctx, cancel := commandContext(c)
	defer cancel()
	info, err := sdk.GetTransactionInfo(ctx, c.Args().Get(0))
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	return printJSON(info)
}

func cmdGasPrice(c *cli.Context) error {
	cfg, err := configFromFlags(c, false)
	if err != nil {
		return err
	}
	sdk, err := client.NewClient(cfg)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	defer sdk.Close()

	ctx, cancel := commandContext(c)
	defer cancel()
	price, err := sdk.ReferenceGasPrice(ctx)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	fmt.Println(price)
	return nil
}
