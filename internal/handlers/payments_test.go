package handlers

import "testing"

func TestSignMomo(t *testing.T) {
	secret := "at67qH6mk8w5Y1nAyMoYKMWACiEi2bsa"

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "ipn signature",
			raw:  "accessKey=F8BBA842ECF85&amount=50000&extraData=&message=Successful.&orderId=INV12-ab34cd56&orderInfo=Thanh toan hoa don #12&orderType=momo_wallet&partnerCode=MOMO&payType=qr&requestId=req-1&responseTime=1700000000000&resultCode=0&transId=4088878653",
			want: "28200b1b01c780d9c7588a6c81f6889ff7aba75735e2b3f1bebd4de71035c0dc",
		},
		{
			name: "create payment signature",
			raw:  "accessKey=F8BBA842ECF85&amount=50000&extraData=&ipnUrl=https://clinic.local/ipn&orderId=INV12-ab34cd56&orderInfo=Thanh toan hoa don #12&partnerCode=MOMO&redirectUrl=https://clinic.local/result&requestId=req-1&requestType=captureWallet",
			want: "9484b40f8806edfad400ebd5127fac52020e2937efff263ceba2aba0d1d0e739",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := signMomo(secret, tt.raw); got != tt.want {
				t.Errorf("signMomo() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSignMomoDiffersPerSecret(t *testing.T) {
	raw := "accessKey=a&amount=1"
	if signMomo("secret-one", raw) == signMomo("secret-two", raw) {
		t.Fatal("different secrets must produce different signatures")
	}
}
