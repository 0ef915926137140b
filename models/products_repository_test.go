package models

import (
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

var (
	deleteProductImages = regexp.QuoteMeta(`DELETE FROM "product_images" WHERE product_id = $1`)
	deleteProduct       = regexp.QuoteMeta(`DELETE FROM "products" WHERE "products"."id" = $1`)
)

func TestDeleteProduct(t *testing.T) {
	testCases := []struct {
		name        string
		setup       func(mock sqlmock.Sqlmock)
		expectedErr error
	}{
		{
			name: "Gallery goes before the product in one transaction",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(deleteProductImages).WithArgs(5).WillReturnResult(sqlmock.NewResult(0, 2))
				mock.ExpectExec(deleteProduct).WithArgs(5).WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
		},
		{
			name: "Unknown product rolls back",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(deleteProductImages).WithArgs(5).WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectExec(deleteProduct).WithArgs(5).WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectRollback()
			},
			expectedErr: ErrProductNotFound,
		},
		{
			name: "Gallery failure leaves the product alone",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(deleteProductImages).WithArgs(5).WillReturnError(errors.New("disk full"))
				mock.ExpectRollback()
			},
			expectedErr: errors.New("delete gallery of product 5: disk full"),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			tc.setup(mock)

			err := NewProductsRepository(db).DeleteProduct(5)

			switch {
			case tc.expectedErr == nil:
				assert.NoError(t, err)
			case errors.Is(tc.expectedErr, ErrProductNotFound):
				assert.ErrorIs(t, err, ErrProductNotFound)
			default:
				assert.EqualError(t, err, tc.expectedErr.Error())
			}
		})
	}
}
