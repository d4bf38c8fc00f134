package main

import (
	"fmt"
	"log"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"

	"github.com/Layr-Labs/eigenx-claims-go/pkg/clients/claimClient"
	"github.com/Layr-Labs/eigenx-claims-go/pkg/logger"
)

func main() {
	app := &cli.App{
		Name:  "claim-client",
		Usage: "Client for the merkle claim distribution server",
		Description: `A client for redeeming entitlements against a claim server and for
administering a distribution.

This client can:
- Redeem an entitlement with a merkle proof
- Query the current root and a recipient's redemption status
- Rotate the root, pause/unpause claims, and hand off authority`,
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "server-url",
				Usage: "Claim server base URL",
				Value: "http://localhost:8080",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable verbose logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "claim",
				Usage: "Redeem an entitlement with a merkle proof",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "claimant",
						Usage:    "Recipient address",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "amount",
						Usage:    "Entitled amount as a decimal integer",
						Required: true,
					},
					&cli.StringSliceFlag{
						Name:  "proof",
						Usage: "Proof element as 0x-prefixed hex (repeatable, leaf to root)",
					},
				},
				Action: claimCommand,
			},
			{
				Name:   "root",
				Usage:  "Print the server's current merkle root",
				Action: rootCommand,
			},
			{
				Name:  "status",
				Usage: "Check whether a recipient has claimed",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "address",
						Usage:    "Recipient address",
						Required: true,
					},
				},
				Action: statusCommand,
			},
			{
				Name:  "rotate-root",
				Usage: "Replace the server's merkle root (authority only)",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "caller",
						Usage:    "Authority address",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "new-root",
						Usage:    "New root as 0x-prefixed hex",
						Required: true,
					},
				},
				Action: rotateRootCommand,
			},
			{
				Name:  "pause",
				Usage: "Suspend claim processing (authority only)",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "caller",
						Usage:    "Authority address",
						Required: true,
					},
				},
				Action: pauseCommand,
			},
			{
				Name:  "unpause",
				Usage: "Resume claim processing (authority only)",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "caller",
						Usage:    "Authority address",
						Required: true,
					},
				},
				Action: unpauseCommand,
			},
			{
				Name:  "nominate",
				Usage: "Nominate a successor authority (authority only)",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "caller",
						Usage:    "Authority address",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "nominee",
						Usage:    "Successor address (zero address clears a pending handoff)",
						Required: true,
					},
				},
				Action: nominateCommand,
			},
			{
				Name:  "accept",
				Usage: "Accept a pending authority handoff (nominee only)",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "caller",
						Usage:    "Nominee address",
						Required: true,
					},
				},
				Action: acceptCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func newClient(c *cli.Context) (*claimClient.Client, error) {
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: c.Bool("verbose")})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return claimClient.NewClient(&claimClient.ClientConfig{
		BaseURL: c.String("server-url"),
		Logger:  l,
	})
}

func parseAddressFlag(c *cli.Context, name string) (common.Address, error) {
	raw := c.String(name)
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("%s must be a hex address, got %q", name, raw)
	}
	return common.HexToAddress(raw), nil
}

func parseDigestFlag(raw string) ([32]byte, error) {
	var digest [32]byte
	decoded := common.FromHex(raw)
	if len(decoded) != 32 {
		return digest, fmt.Errorf("expected 32 hex-encoded bytes, got %q", raw)
	}
	copy(digest[:], decoded)
	return digest, nil
}

func claimCommand(c *cli.Context) error {
	client, err := newClient(c)
	if err != nil {
		return err
	}

	claimant, err := parseAddressFlag(c, "claimant")
	if err != nil {
		return err
	}

	amount, ok := new(big.Int).SetString(c.String("amount"), 10)
	if !ok {
		return fmt.Errorf("amount must be a decimal integer, got %q", c.String("amount"))
	}

	elements := c.StringSlice("proof")
	proof := make([][32]byte, len(elements))
	for i, el := range elements {
		proof[i], err = parseDigestFlag(el)
		if err != nil {
			return fmt.Errorf("proof element %d: %w", i, err)
		}
	}

	resp, err := client.Claim(c.Context, claimant, amount, proof)
	if err != nil {
		return err
	}

	fmt.Printf("Claimed %s for %s under root %s\n", resp.Amount, resp.Claimant, resp.Root)
	return nil
}

func rootCommand(c *cli.Context) error {
	client, err := newClient(c)
	if err != nil {
		return err
	}

	root, err := client.Root(c.Context)
	if err != nil {
		return err
	}

	fmt.Printf("0x%s\n", common.Bytes2Hex(root[:]))
	return nil
}

func statusCommand(c *cli.Context) error {
	client, err := newClient(c)
	if err != nil {
		return err
	}

	address, err := parseAddressFlag(c, "address")
	if err != nil {
		return err
	}

	claimed, err := client.IsClaimed(c.Context, address)
	if err != nil {
		return err
	}

	if claimed {
		fmt.Printf("%s has claimed\n", address.Hex())
	} else {
		fmt.Printf("%s has not claimed\n", address.Hex())
	}
	return nil
}

func rotateRootCommand(c *cli.Context) error {
	client, err := newClient(c)
	if err != nil {
		return err
	}

	caller, err := parseAddressFlag(c, "caller")
	if err != nil {
		return err
	}
	newRoot, err := parseDigestFlag(c.String("new-root"))
	if err != nil {
		return err
	}

	if err := client.RotateRoot(c.Context, caller, newRoot); err != nil {
		return err
	}

	fmt.Printf("Rotated root to %s\n", c.String("new-root"))
	return nil
}

func pauseCommand(c *cli.Context) error {
	client, err := newClient(c)
	if err != nil {
		return err
	}

	caller, err := parseAddressFlag(c, "caller")
	if err != nil {
		return err
	}

	if err := client.Pause(c.Context, caller); err != nil {
		return err
	}

	fmt.Println("Claims paused")
	return nil
}

func unpauseCommand(c *cli.Context) error {
	client, err := newClient(c)
	if err != nil {
		return err
	}

	caller, err := parseAddressFlag(c, "caller")
	if err != nil {
		return err
	}

	if err := client.Unpause(c.Context, caller); err != nil {
		return err
	}

	fmt.Println("Claims resumed")
	return nil
}

func nominateCommand(c *cli.Context) error {
	client, err := newClient(c)
	if err != nil {
		return err
	}

	caller, err := parseAddressFlag(c, "caller")
	if err != nil {
		return err
	}

	raw := c.String("nominee")
	if !common.IsHexAddress(raw) {
		return fmt.Errorf("nominee must be a hex address, got %q", raw)
	}
	nominee := common.HexToAddress(raw)

	if err := client.NominateAuthority(c.Context, caller, nominee); err != nil {
		return err
	}

	if nominee == (common.Address{}) {
		fmt.Println("Cleared pending authority handoff")
	} else {
		fmt.Printf("Nominated %s as successor authority\n", nominee.Hex())
	}
	return nil
}

func acceptCommand(c *cli.Context) error {
	client, err := newClient(c)
	if err != nil {
		return err
	}

	caller, err := parseAddressFlag(c, "caller")
	if err != nil {
		return err
	}

	if err := client.AcceptAuthority(c.Context, caller); err != nil {
		return err
	}

	fmt.Printf("Authority handoff completed; %s is now the authority\n", caller.Hex())
	return nil
}
