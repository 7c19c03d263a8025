package main

import (
	"context"
	"flag"

	"github.com/subhransupk/shelfcure-sub008/internal/bootstrap"
)

type counterValue struct {
	ScopeKey string `json:"scope_key"`
	Value    int64  `json:"value"`
}

type mismatchList struct {
	Tenant     string `json:"tenant,omitempty"`
	Mismatches any    `json:"mismatches"`
	Count      int    `json:"count"`
}

type overdueResult struct {
	Marked int `json:"marked"`
}

func supplierFlags(fs *flag.FlagSet, a *cmdArgs) {
	fs.StringVar(&a.tenant, "tenant", "", "Store (tenant) ID")
	fs.StringVar(&a.supplier, "supplier", "", "Supplier ID")
}

func tenantFlag(fs *flag.FlagSet, a *cmdArgs) {
	fs.StringVar(&a.tenant, "tenant", "", "Limit to one store (tenant) ID")
}

func scopeFlag(fs *flag.FlagSet, a *cmdArgs) {
	fs.StringVar(&a.scope, "scope", "", "Counter scope key, e.g. <store>:purchase:2024:03")
}

func actorFlag(fs *flag.FlagSet, a *cmdArgs) {
	fs.StringVar(&a.actor, "actor", "", "User ID recorded on the audit row")
}

var commands = map[string]command{}

func register(c command) {
	commands[c.name] = c
}

func init() {
	register(command{
		name:  "verify-balance",
		usage: "fold one supplier ledger and compare with the stored balance",
		flags: supplierFlags,
		execute: func(ctx context.Context, svc *bootstrap.Services, a *cmdArgs) (outcome, error) {
			tenantID, err := a.tenantID()
			if err != nil {
				return outcome{}, err
			}
			supplierID, err := a.supplierID()
			if err != nil {
				return outcome{}, err
			}
			report, err := svc.Balances.VerifyBalance(ctx, tenantID, supplierID)
			if err != nil {
				return outcome{}, err
			}
			return outcome{Result: report, Findings: !report.OK}, nil
		},
	})

	register(command{
		name:  "repair-balance",
		usage: "overwrite a drifted stored balance with the ledger fold",
		flags: func(fs *flag.FlagSet, a *cmdArgs) {
			supplierFlags(fs, a)
			actorFlag(fs, a)
			fs.StringVar(&a.note, "note", "", "Reason recorded on the audit row")
		},
		execute: func(ctx context.Context, svc *bootstrap.Services, a *cmdArgs) (outcome, error) {
			tenantID, err := a.tenantID()
			if err != nil {
				return outcome{}, err
			}
			supplierID, err := a.supplierID()
			if err != nil {
				return outcome{}, err
			}
			actorID, err := a.actorID()
			if err != nil {
				return outcome{}, err
			}
			result, err := svc.Balances.RepairBalance(ctx, tenantID, supplierID, actorID, a.note)
			if err != nil {
				return outcome{}, err
			}
			return outcome{Result: result}, nil
		},
	})

	register(command{
		name:  "find-mismatches",
		usage: "list suppliers whose stored balance drifted from the ledger",
		flags: tenantFlag,
		execute: func(ctx context.Context, svc *bootstrap.Services, a *cmdArgs) (outcome, error) {
			tenantID, err := a.optionalTenant()
			if err != nil {
				return outcome{}, err
			}
			reports, err := svc.Balances.FindBalanceMismatches(ctx, tenantID)
			if err != nil {
				return outcome{}, err
			}
			return outcome{
				Result:   mismatchList{Tenant: a.tenant, Mismatches: reports, Count: len(reports)},
				Findings: len(reports) > 0,
			}, nil
		},
	})

	register(command{
		name:  "find-duplicates",
		usage: "list document numbers issued more than once in a scope",
		flags: scopeFlag,
		execute: func(ctx context.Context, svc *bootstrap.Services, a *cmdArgs) (outcome, error) {
			key, err := a.scopeKey()
			if err != nil {
				return outcome{}, err
			}
			report, err := svc.Sequences.FindDuplicates(ctx, key)
			if err != nil {
				return outcome{}, err
			}
			return outcome{Result: report, Findings: report.HasDuplicates()}, nil
		},
	})

	register(command{
		name:  "repair-duplicates",
		usage: "renumber duplicate documents and advance the counter",
		flags: func(fs *flag.FlagSet, a *cmdArgs) {
			scopeFlag(fs, a)
			actorFlag(fs, a)
		},
		execute: func(ctx context.Context, svc *bootstrap.Services, a *cmdArgs) (outcome, error) {
			key, err := a.scopeKey()
			if err != nil {
				return outcome{}, err
			}
			actorID, err := a.actorID()
			if err != nil {
				return outcome{}, err
			}
			result, err := svc.Sequences.RepairDuplicates(ctx, key, actorID)
			if err != nil {
				return outcome{}, err
			}
			return outcome{Result: result}, nil
		},
	})

	register(command{
		name:  "verify-counter",
		usage: "compare a counter with the highest number in use",
		flags: scopeFlag,
		execute: func(ctx context.Context, svc *bootstrap.Services, a *cmdArgs) (outcome, error) {
			key, err := a.scopeKey()
			if err != nil {
				return outcome{}, err
			}
			report, err := svc.Sequences.VerifyCounter(ctx, key)
			if err != nil {
				return outcome{}, err
			}
			return outcome{Result: report, Findings: report.Behind}, nil
		},
	})

	register(command{
		name:  "next",
		usage: "issue the next number of a counter",
		flags: scopeFlag,
		execute: func(ctx context.Context, svc *bootstrap.Services, a *cmdArgs) (outcome, error) {
			key, err := a.scopeKey()
			if err != nil {
				return outcome{}, err
			}
			value, err := svc.Numbering.Next(ctx, key)
			if err != nil {
				return outcome{}, err
			}
			return outcome{Result: counterValue{ScopeKey: key.String(), Value: value}}, nil
		},
	})

	register(command{
		name:  "current",
		usage: "show the last number issued by a counter",
		flags: scopeFlag,
		execute: func(ctx context.Context, svc *bootstrap.Services, a *cmdArgs) (outcome, error) {
			key, err := a.scopeKey()
			if err != nil {
				return outcome{}, err
			}
			value, err := svc.Numbering.CurrentValue(ctx, key)
			if err != nil {
				return outcome{}, err
			}
			return outcome{Result: counterValue{ScopeKey: key.String(), Value: value}}, nil
		},
	})

	register(command{
		name:  "reset",
		usage: "set a counter back to zero",
		flags: scopeFlag,
		execute: func(ctx context.Context, svc *bootstrap.Services, a *cmdArgs) (outcome, error) {
			key, err := a.scopeKey()
			if err != nil {
				return outcome{}, err
			}
			if err := svc.Numbering.Reset(ctx, key); err != nil {
				return outcome{}, err
			}
			return outcome{Result: counterValue{ScopeKey: key.String()}}, nil
		},
	})

	register(command{
		name:  "reseed",
		usage: "raise a counter so the next number is value+1",
		flags: func(fs *flag.FlagSet, a *cmdArgs) {
			scopeFlag(fs, a)
			fs.Int64Var(&a.value, "value", 0, "Highest number already issued in the scope")
		},
		execute: func(ctx context.Context, svc *bootstrap.Services, a *cmdArgs) (outcome, error) {
			key, err := a.scopeKey()
			if err != nil {
				return outcome{}, err
			}
			if err := svc.Numbering.Reseed(ctx, key, a.value); err != nil {
				return outcome{}, err
			}
			return outcome{Result: counterValue{ScopeKey: key.String(), Value: a.value}}, nil
		},
	})

	register(command{
		name:  "recompute-stats",
		usage: "rescan completed purchases into the supplier totals",
		flags: supplierFlags,
		execute: func(ctx context.Context, svc *bootstrap.Services, a *cmdArgs) (outcome, error) {
			tenantID, err := a.tenantID()
			if err != nil {
				return outcome{}, err
			}
			supplierID, err := a.supplierID()
			if err != nil {
				return outcome{}, err
			}
			supplier, err := svc.Stats.Recompute(ctx, tenantID, supplierID)
			if err != nil {
				return outcome{}, err
			}
			return outcome{Result: supplier}, nil
		},
	})

	register(command{
		name:  "mark-overdue",
		usage: "flag unpaid purchases past their due date as overdue",
		flags: tenantFlag,
		execute: func(ctx context.Context, svc *bootstrap.Services, a *cmdArgs) (outcome, error) {
			tenantID, err := a.optionalTenant()
			if err != nil {
				return outcome{}, err
			}
			marked, err := svc.Purchases.MarkOverdue(ctx, tenantID)
			if err != nil {
				return outcome{}, err
			}
			return outcome{Result: overdueResult{Marked: marked}}, nil
		},
	})
}
