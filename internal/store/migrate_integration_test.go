// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package store_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/holomush/skyblock/internal/store"
)

var _ = Describe("Migrator", func() {
	var migrator *store.Migrator

	BeforeEach(func() {
		var err error
		migrator, err = store.NewMigrator(connStr)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() {
			Expect(migrator.Down()).To(Succeed())
			Expect(migrator.Close()).To(Succeed())
		})
	})

	It("runs the full up, step and down cycle", func() {
		st, err := migrator.Status()
		Expect(err).NotTo(HaveOccurred())
		Expect(st.Version).To(BeZero())
		Expect(st.Pending).NotTo(BeEmpty())

		Expect(migrator.Up()).To(Succeed())
		latest, dirty, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(dirty).To(BeFalse())
		Expect(latest).To(BeNumerically(">", 0))

		Expect(migrator.Steps(-1)).To(Succeed())
		v, _, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(latest - 1))

		Expect(migrator.Steps(1)).To(Succeed())
		st, err = migrator.Status()
		Expect(err).NotTo(HaveOccurred())
		Expect(st.Version).To(Equal(latest))
		Expect(st.Pending).To(BeEmpty())
	})

	It("creates a queryable islands table", func() {
		Expect(migrator.Up()).To(Succeed())

		ctx := context.Background()
		pool, err := store.Connect(ctx, connStr, store.DefaultConnectOptions())
		Expect(err).NotTo(HaveOccurred())
		defer pool.Close()

		var n int
		Expect(pool.QueryRow(ctx, `SELECT count(*) FROM islands`).Scan(&n)).To(Succeed())
		Expect(n).To(BeZero())
	})
})
