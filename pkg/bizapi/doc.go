// Package bizapi maps each BizTrack REST operation to a typed Go method.
//
// The Service is stateless. Authenticated methods take the bearer token as
// an argument and return the *apiclient.Error produced by the transport
// unchanged, so a 401 from any of them still reaches the unauthorized hook
// registered on the client. Payloads are validated client-side before any
// request is made; validation failures are validator.ValidationErrors.
//
// Transactions are created as JSON, or as multipart form data when receipt
// images are attached:
//
//	r, err := bizapi.OpenReceipt("scan.jpg")
//	if err != nil {
//	    return err
//	}
//	tx, err := api.CreateTransaction(ctx, token, bizapi.TransactionInput{
//	    Amount:   1200,
//	    Category: "Supplies",
//	    Purpose:  "Printer paper",
//	    PaidBy:   "Company",
//	}, r)
package bizapi
