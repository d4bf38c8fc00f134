package main

import (
	"encoding/json"
	"fmt"
	"log"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"

	"github.com/Layr-Labs/eigenx-claims-go/pkg/merkle"
	"github.com/Layr-Labs/eigenx-claims-go/pkg/types"
)

// entitlementInput is one row of the distribution file.
type entitlementInput struct {
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
}

// proofOutput pairs an entitlement with its proof path.
type proofOutput struct {
	Recipient string   `json:"recipient"`
	Amount    string   `json:"amount"`
	Proof     []string `json:"proof"`
}

// treeOutput is the full artifact for a distribution wave.
type treeOutput struct {
	Root      string        `json:"root"`
	LeafCount int           `json:"leaf_count"`
	Proofs    []proofOutput `json:"proofs"`
}

func main() {
	app := &cli.App{
		Name:  "rootgen",
		Usage: "Build a merkle root and proofs for a token distribution",
		Description: `Reads a JSON distribution file of {recipient, amount} rows, builds the
canonical merkle tree over them, and writes the root plus a proof per
recipient. The root goes to the claim server; each proof goes to its
recipient.`,
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Usage:    "Path to the distribution JSON file",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Path to write the root and proofs (default: stdout)",
			},
			&cli.BoolFlag{
				Name:  "root-only",
				Usage: "Print only the root, without proofs",
			},
		},
		Action: runRootGen,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func runRootGen(c *cli.Context) error {
	raw, err := os.ReadFile(c.String("input"))
	if err != nil {
		return fmt.Errorf("failed to read distribution file: %w", err)
	}

	var rows []entitlementInput
	if err := json.Unmarshal(raw, &rows); err != nil {
		return fmt.Errorf("failed to parse distribution file: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("distribution file contains no entitlements")
	}

	ents := make([]*types.Entitlement, len(rows))
	for i, row := range rows {
		if !common.IsHexAddress(row.Recipient) {
			return fmt.Errorf("row %d: %q is not a hex address", i, row.Recipient)
		}
		amount, ok := new(big.Int).SetString(row.Amount, 10)
		if !ok {
			return fmt.Errorf("row %d: %q is not a decimal amount", i, row.Amount)
		}
		ents[i] = &types.Entitlement{
			Recipient: common.HexToAddress(row.Recipient),
			Amount:    amount,
		}
	}

	tree, err := merkle.BuildTree(ents)
	if err != nil {
		return fmt.Errorf("failed to build merkle tree: %w", err)
	}

	if c.Bool("root-only") {
		return writeOutput(c, []byte("0x"+common.Bytes2Hex(tree.Root[:])+"\n"))
	}

	out := treeOutput{
		Root:      "0x" + common.Bytes2Hex(tree.Root[:]),
		LeafCount: len(ents),
		Proofs:    make([]proofOutput, len(ents)),
	}
	for i, ent := range ents {
		proof, err := tree.ProofFor(ent)
		if err != nil {
			return fmt.Errorf("failed to build proof for %s: %w", ent.Recipient.Hex(), err)
		}
		elements := make([]string, len(proof))
		for j, p := range proof {
			elements[j] = "0x" + common.Bytes2Hex(p[:])
		}
		out.Proofs[i] = proofOutput{
			Recipient: ent.Recipient.Hex(),
			Amount:    ent.Amount.String(),
			Proof:     elements,
		}
	}

	encoded, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return writeOutput(c, append(encoded, '\n'))
}

func writeOutput(c *cli.Context, data []byte) error {
	if path := c.String("output"); path != "" {
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Printf("Wrote %s\n", path)
		return nil
	}
	_, err := os.Stdout.Write(data)
	return err
}
